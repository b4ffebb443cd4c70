// Package presence tracks live connections per user.
//
// The registry is the fan-out target lookup for the websocket gateway:
// every accepted notification is pushed to each connection id the
// registry holds for the user at that moment. State lives only in
// memory and only for one process.
package presence
