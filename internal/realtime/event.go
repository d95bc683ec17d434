package realtime

import (
	"encoding/json"
	"errors"
	"strings"

	"parley/internal/models"
)

// Inbound events.
const (
	EventSetup      = "setup"
	EventJoinChat   = "join chat"
	EventLeaveChat  = "leave chat"
	EventTyping     = "typing"
	EventStopTyping = "stop typing"
	EventNewMessage = "new message"
)

// Outbound events.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message received"
)

var (
	ErrMalformedEvent = errors.New("malformed realtime event")
	ErrNotBound       = errors.New("session is not bound")
	ErrSessionClosed  = errors.New("session is closed")
)

// Frame is the wire shape of every realtime message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals payload into a frame. A nil payload yields a frame
// without data.
func NewFrame(event string, payload any) (Frame, error) {
	if payload == nil {
		return Frame{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: data}, nil
}

// decodeID reads an identifier sent either as a bare string or as an
// object carrying "_id".
func decodeID(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", ErrMalformedEvent
	}
	var ref models.User
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", errors.Join(ErrMalformedEvent, err)
	}
	id := strings.TrimSpace(ref.ID)
	if id == "" {
		return "", ErrMalformedEvent
	}
	return id, nil
}

// UserRoom and ChatRoom keep the two id spaces apart inside the registry.
func UserRoom(userID string) string { return "user:" + userID }

func ChatRoom(chatID string) string { return "chat:" + chatID }
