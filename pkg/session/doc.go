/*
Package session implements the registry of camera devices held by scan sessions.

A camera is an exclusive hardware resource: a leaked handle blocks the device
for every later session. The Manager enforces one holder per device inside a
process and, through an optional ports.DeviceLocker (e.g. Redis), across
processes sharing the same hardware.
*/
package session
