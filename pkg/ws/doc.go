// Package ws implements the live notification delivery channel over
// websockets.
//
// # Protocol
//
// The handshake carries a bearer token, either as an Authorization
// header or a ?token= query parameter. After verification the server
// sends a "connected" frame with the user and connection ids. Every
// accepted notification arrives as a "notification:new" frame on each
// of the user's open connections. Clients may send "notification:read"
// frames, which feed the same mark-read path as the REST API.
//
// Frames are JSON objects of the shape {"event": ..., "data": ...}.
//
// # Lifecycle
//
// Each connection moves through connecting, authenticated, active, and
// closed. Registration in the presence registry happens only after
// authentication succeeds, and removal is deferred so abnormal
// termination cannot leak presence entries. There is no session
// resumption: reconnecting clients handshake again and read missed
// history from the notification store.
package ws
