package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeClientMessage parses a raw frame into one of the ClientMessage
// variants. Frames with an unrecognized type tag fail with
// ErrUnknownMessageType; anything unparsable fails with ErrMalformedMessage.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}

	switch head.Type {
	case TypeSendMessage:
		var m SendMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Join(ErrMalformedMessage, err)
		}
		return m, nil
	case TypeLeaveRoom:
		var m LeaveRoom
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Join(ErrMalformedMessage, err)
		}
		return m, nil
	case TypeKickUser:
		var m KickUser
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Join(ErrMalformedMessage, err)
		}
		return m, nil
	case TypePing:
		var m Ping
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Join(ErrMalformedMessage, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, head.Type)
	}
}

// EncodeServerMessage serializes a server event with its type tag inlined
// next to the payload fields.
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	switch m := msg.(type) {
	case MessageBroadcast:
		return json.Marshal(struct {
			Type string `json:"type"`
			MessageBroadcast
		}{TypeMessageBroadcast, m})
	case UserJoined:
		return json.Marshal(struct {
			Type string `json:"type"`
			UserJoined
		}{TypeUserJoined, m})
	case UserLeft:
		return json.Marshal(struct {
			Type string `json:"type"`
			UserLeft
		}{TypeUserLeft, m})
	case UserKicked:
		return json.Marshal(struct {
			Type string `json:"type"`
			UserKicked
		}{TypeUserKicked, m})
	case RoomDeleted:
		return json.Marshal(struct {
			Type string `json:"type"`
			RoomDeleted
		}{TypeRoomDeleted, m})
	case Pong:
		return json.Marshal(struct {
			Type string `json:"type"`
			Pong
		}{TypePong, m})
	case ErrorEvent:
		return json.Marshal(struct {
			Type string `json:"type"`
			ErrorEvent
		}{TypeError, m})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, msg)
	}
}
