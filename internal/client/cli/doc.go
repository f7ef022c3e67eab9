// Package cli implements the bowwowctl command tree.
//
// Every command that talks to the server goes through the signalAPI
// interface, so tests can swap the gRPC client for a fake. Output is plain
// aligned text by default and indented JSON with --json.
package cli
