// Package chatws exposes the chat protocol over websocket. It upgrades
// GET requests carrying a user_id query parameter, wraps the resulting
// connection in the frame transport the connection actor expects, and runs
// the actor until the session ends.
//
// The upgrade is refused with a plain HTTP error when user_id is missing;
// every later failure (no reservation, room gone, transport drop) is
// reported in-band as an Error frame before the socket closes.
package chatws
