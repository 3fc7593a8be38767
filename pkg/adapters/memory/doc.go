// Package memory provides in-process implementations of the shelfscan ports.
// They are scripted and observable, intended for tests, demos and hosts that
// drive the scanner from frames they already hold in memory.
package memory
