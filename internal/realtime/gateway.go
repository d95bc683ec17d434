package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"parley/internal/models"
)

// Gateway runs the per-session state machine on top of a Broadcaster.
// Errors returned from HandleFrame are for the transport to log; nothing is
// ever written back to the emitting connection.
type Gateway struct {
	rooms Broadcaster
}

func NewGateway(rooms Broadcaster) *Gateway {
	return &Gateway{rooms: rooms}
}

func (g *Gateway) HandleFrame(s *Session, f Frame) error {
	switch s.State() {
	case StateClosed:
		return ErrSessionClosed
	case StateUnbound:
		if f.Event != EventSetup {
			return fmt.Errorf("%w: %q before setup", ErrNotBound, f.Event)
		}
		return g.setup(s, f.Data)
	}

	switch f.Event {
	case EventSetup:
		log.Printf("[ws][setup] session=%s already bound to user=%s, ignored", s.ID(), s.UserID())
		return nil
	case EventJoinChat:
		chatID, err := decodeID(f.Data)
		if err != nil {
			return fmt.Errorf("join chat: %w", err)
		}
		g.rooms.Join(ChatRoom(chatID), s)
		return nil
	case EventLeaveChat:
		chatID, err := decodeID(f.Data)
		if err != nil {
			return fmt.Errorf("leave chat: %w", err)
		}
		g.rooms.Leave(ChatRoom(chatID), s)
		return nil
	case EventTyping, EventStopTyping:
		chatID, err := decodeID(f.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Event, err)
		}
		g.rooms.Broadcast(ChatRoom(chatID), Frame{Event: f.Event, Data: json.RawMessage(strconv.Quote(chatID))}, s)
		return nil
	case EventNewMessage:
		return g.relayMessage(s, f.Data)
	}
	return fmt.Errorf("%w: unknown event %q", ErrMalformedEvent, f.Event)
}

func (g *Gateway) setup(s *Session, data json.RawMessage) error {
	userID, err := decodeID(data)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if s.identity != "" && s.identity != userID {
		return fmt.Errorf("%w: setup as %s on a connection authenticated as %s", ErrMalformedEvent, userID, s.identity)
	}
	if !s.bind(userID) {
		return nil
	}
	g.rooms.Join(UserRoom(userID), s)
	s.Deliver(Frame{Event: EventConnected})
	log.Printf("[ws][setup][ok] session=%s user=%s", s.ID(), userID)
	return nil
}

// relayMessage fans an already persisted message out to the user-room of
// every member except the sender. The envelope is forwarded as received.
func (g *Gateway) relayMessage(s *Session, data json.RawMessage) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty message envelope", ErrMalformedEvent)
	}
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}
	if msg.Chat == nil || len(msg.Chat.Users) == 0 {
		return fmt.Errorf("%w: chat.users not defined", ErrMalformedEvent)
	}
	if msg.Sender == nil || msg.Sender.ID == "" {
		return fmt.Errorf("%w: sender not defined", ErrMalformedEvent)
	}
	if msg.Sender.ID != s.UserID() {
		return fmt.Errorf("%w: sender %s does not match session user %s", ErrMalformedEvent, msg.Sender.ID, s.UserID())
	}

	out := Frame{Event: EventMessageReceived, Data: data}
	for _, memberID := range msg.Chat.MemberIDs() {
		if memberID == msg.Sender.ID {
			continue
		}
		g.rooms.Broadcast(UserRoom(memberID), out)
	}
	return nil
}

// Close tears the session down. Safe to call more than once.
func (g *Gateway) Close(s *Session) {
	if !s.close() {
		return
	}
	g.rooms.LeaveAll(s)
	log.Printf("[ws][close] session=%s user=%s", s.ID(), s.UserID())
}
