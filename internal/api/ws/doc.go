// Package ws streams pricing aggregation progress over WebSocket.
//
// A client connecting to /pricing/stream receives one source_settled event
// per service in completion order, then a single aggregated event carrying
// the grouped result in registry order. The server closes the connection
// afterwards.
package ws
