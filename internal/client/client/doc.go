// Package client talks to a BowWow server.
//
// GRPCClient wraps the SignalService API over the JSON gRPC codec and maps
// status codes back to the sentinel errors of package common, so callers
// can use errors.Is the same way the server does. Watcher follows the live
// proximity feed over WebSocket.
package client
