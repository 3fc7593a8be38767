// Package mcp exposes ISBN validation and barcode decoding as Model Context
// Protocol tools, so AI agents can catalogue books from photographs.
package mcp
