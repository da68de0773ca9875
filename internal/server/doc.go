// Package server is the network side of the chat relay: the WebSocket hub and
// its clients, the read-only HTTP query endpoints, origin and CORS policy, and
// helpers to run the HTTP server.
//
// Clients implement room.Conn, so the room engine never sees a socket. The hub
// owns the set of live connections and turns a closed socket into the room's
// disconnect notification.
package server
