// Package chat defines the wire protocol shared by the HTTP API and the
// persistent websocket connection: request/response payloads, the tagged
// client/server message unions, and the codec that translates between raw
// frames and typed messages.
//
// Both unions are closed sum types. Every message carries a "type" tag field
// on the wire, and the codec handles each variant exhaustively; an unknown or
// malformed frame yields ErrUnknownMessageType or ErrMalformedMessage, never a
// panic and never a silent drop.
//
// Decoding a client frame:
//
//	msg, err := chat.DecodeClientMessage(data)
//	if err != nil {
//	    // report back as a protocol error, keep the connection
//	}
//	switch m := msg.(type) {
//	case chat.SendMessage:
//	    // ...
//	}
//
// Encoding a server event:
//
//	data, err := chat.EncodeServerMessage(chat.Pong{Timestamp: ts})
package chat
