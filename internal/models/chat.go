package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Chat is either a direct chat between two users or a group chat.
// The *ID fields are references; Users, GroupAdmin and LatestMessage are
// filled by relation expansion.
type Chat struct {
	ID          string `json:"_id"`
	ChatName    string `json:"chatName"`
	IsGroupChat bool   `json:"isGroupChat"`

	UserIDs []string `json:"-"`
	Users   []User   `json:"users"`

	GroupAdminID string `json:"-"`
	GroupAdmin   *User  `json:"groupAdmin,omitempty"`

	LatestMessageID string   `json:"-"`
	LatestMessage   *Message `json:"latestMessage,omitempty"`

	// DirectKey is the sorted pair key of a direct chat; empty for groups.
	DirectKey string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasMember reports whether userID is in the chat membership.
func (c *Chat) HasMember(userID string) bool {
	for _, id := range c.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the member ids, preferring the expanded list when the
// chat came in over the wire without references.
func (c *Chat) MemberIDs() []string {
	if len(c.UserIDs) > 0 {
		return c.UserIDs
	}
	ids := make([]string, 0, len(c.Users))
	for _, u := range c.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

// Clone returns a copy whose slices can be mutated independently.
func (c *Chat) Clone() *Chat {
	cp := *c
	cp.UserIDs = append([]string(nil), c.UserIDs...)
	cp.Users = nil
	cp.GroupAdmin = nil
	cp.LatestMessage = nil
	return &cp
}

// Message is immutable once created.
type Message struct {
	ID string `json:"_id"`

	SenderID string `json:"-"`
	Sender   *User  `json:"sender,omitempty"`

	ChatID string `json:"-"`
	Chat   *Chat  `json:"chat,omitempty"`

	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	// Seq is assigned by the store and breaks createdAt ties.
	Seq int64 `json:"-"`
}

// Clone drops expanded relations.
func (m *Message) Clone() *Message {
	cp := *m
	cp.Sender = nil
	cp.Chat = nil
	return &cp
}

// MarshalJSON writes unexpanded relations as bare ids.
func (c Chat) MarshalJSON() ([]byte, error) {
	type plain Chat
	out := struct {
		plain
		Users         any `json:"users"`
		GroupAdmin    any `json:"groupAdmin,omitempty"`
		LatestMessage any `json:"latestMessage,omitempty"`
	}{plain: plain(c)}
	switch {
	case c.Users != nil:
		out.Users = c.Users
	case c.UserIDs != nil:
		out.Users = c.UserIDs
	}
	if c.GroupAdmin != nil {
		out.GroupAdmin = c.GroupAdmin
	} else if c.GroupAdminID != "" {
		out.GroupAdmin = c.GroupAdminID
	}
	if c.LatestMessage != nil {
		out.LatestMessage = c.LatestMessage
	} else if c.LatestMessageID != "" {
		out.LatestMessage = c.LatestMessageID
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a chat object or a bare id.
func (c *Chat) UnmarshalJSON(data []byte) error {
	if id, ok, err := bareID(data); ok || err != nil {
		*c = Chat{ID: id}
		return err
	}
	type plain Chat
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Chat(p)
	return nil
}

// MarshalJSON writes an unexpanded sender or chat as its id.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	out := struct {
		plain
		Sender any `json:"sender,omitempty"`
		Chat   any `json:"chat,omitempty"`
	}{plain: plain(m)}
	if m.Sender != nil {
		out.Sender = m.Sender
	} else if m.SenderID != "" {
		out.Sender = m.SenderID
	}
	if m.Chat != nil {
		out.Chat = m.Chat
	} else if m.ChatID != "" {
		out.Chat = m.ChatID
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a message object or a bare id.
func (m *Message) UnmarshalJSON(data []byte) error {
	if id, ok, err := bareID(data); ok || err != nil {
		*m = Message{ID: id}
		return err
	}
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	return nil
}

func bareID(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return "", false, nil
	}
	var id string
	err := json.Unmarshal(data, &id)
	return id, true, err
}
