package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parley/internal/models"
)

var ErrUnknownRelation = errors.New("unknown relation path")

// Projection selects which user fields survive expansion.
type Projection int

const (
	// ProjectionNoSecrets keeps every field except the password hash.
	ProjectionNoSecrets Projection = iota
	// ProjectionContact keeps id, name, picture and email.
	ProjectionContact
)

func (p Projection) apply(u *models.User) models.User {
	out := models.User{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
	if p == ProjectionNoSecrets && u.CreatedAt != nil {
		created := *u.CreatedAt
		out.CreatedAt = &created
	}
	return out
}

// Expansion is one step of a relation chain. Paths are relative to the
// record being expanded; a dotted path reaches into a relation that an
// earlier step in the same chain already loaded.
type Expansion struct {
	Path       string
	Projection Projection
}

var (
	ChatExpansions = []Expansion{
		{Path: "users", Projection: ProjectionNoSecrets},
		{Path: "groupAdmin", Projection: ProjectionNoSecrets},
		{Path: "latestMessage"},
		{Path: "latestMessage.sender", Projection: ProjectionContact},
	}
	PostedMessageExpansions = []Expansion{
		{Path: "sender", Projection: ProjectionContact},
		{Path: "chat"},
		{Path: "chat.users", Projection: ProjectionContact},
	}
	MessageListExpansions = []Expansion{
		{Path: "sender", Projection: ProjectionContact},
		{Path: "chat"},
	}
)

// Expander resolves references on chats and messages with one batched
// lookup per step.
type Expander struct {
	users    UserRepository
	chats    ChatRepository
	messages MessageRepository
}

func NewExpander(users UserRepository, chats ChatRepository, messages MessageRepository) *Expander {
	return &Expander{users: users, chats: chats, messages: messages}
}

func (e *Expander) Chats(ctx context.Context, chats []*models.Chat, chain []Expansion) error {
	for _, x := range chain {
		head, rest, nested := strings.Cut(x.Path, ".")
		var err error
		switch {
		case head == "users" && !nested:
			err = e.chatMembers(ctx, chats, x.Projection)
		case head == "groupAdmin" && !nested:
			err = e.chatAdmins(ctx, chats, x.Projection)
		case head == "latestMessage" && !nested:
			err = e.latestMessages(ctx, chats)
		case head == "latestMessage":
			var loaded []*models.Message
			for _, c := range chats {
				if c.LatestMessage != nil {
					loaded = append(loaded, c.LatestMessage)
				}
			}
			err = e.Messages(ctx, loaded, []Expansion{{Path: rest, Projection: x.Projection}})
		default:
			err = fmt.Errorf("%w: chat.%s", ErrUnknownRelation, x.Path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Expander) Messages(ctx context.Context, msgs []*models.Message, chain []Expansion) error {
	for _, x := range chain {
		head, rest, nested := strings.Cut(x.Path, ".")
		var err error
		switch {
		case head == "sender" && !nested:
			err = e.senders(ctx, msgs, x.Projection)
		case head == "chat" && !nested:
			err = e.messageChats(ctx, msgs)
		case head == "chat":
			var loaded []*models.Chat
			for _, m := range msgs {
				if m.Chat != nil {
					loaded = append(loaded, m.Chat)
				}
			}
			err = e.Chats(ctx, loaded, []Expansion{{Path: rest, Projection: x.Projection}})
		default:
			err = fmt.Errorf("%w: message.%s", ErrUnknownRelation, x.Path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Expander) userIndex(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users, err := e.users.FindByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	index := make(map[string]*models.User, len(users))
	for _, u := range users {
		index[u.ID] = u
	}
	return index, nil
}

// resolveUser falls back to a bare reference so fan-out never loses a member
// whose profile row is missing.
func resolveUser(index map[string]*models.User, id string, p Projection) models.User {
	if u, ok := index[id]; ok {
		return p.apply(u)
	}
	return models.User{ID: id}
}

func (e *Expander) chatMembers(ctx context.Context, chats []*models.Chat, p Projection) error {
	var ids []string
	for _, c := range chats {
		ids = append(ids, c.UserIDs...)
	}
	index, err := e.userIndex(ctx, ids)
	if err != nil {
		return err
	}
	for _, c := range chats {
		c.Users = make([]models.User, 0, len(c.UserIDs))
		for _, id := range c.UserIDs {
			c.Users = append(c.Users, resolveUser(index, id, p))
		}
	}
	return nil
}

func (e *Expander) chatAdmins(ctx context.Context, chats []*models.Chat, p Projection) error {
	var ids []string
	for _, c := range chats {
		if c.GroupAdminID != "" {
			ids = append(ids, c.GroupAdminID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	index, err := e.userIndex(ctx, ids)
	if err != nil {
		return err
	}
	for _, c := range chats {
		if c.GroupAdminID != "" {
			admin := resolveUser(index, c.GroupAdminID, p)
			c.GroupAdmin = &admin
		}
	}
	return nil
}

func (e *Expander) latestMessages(ctx context.Context, chats []*models.Chat) error {
	var ids []string
	for _, c := range chats {
		if c.LatestMessageID != "" {
			ids = append(ids, c.LatestMessageID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	msgs, err := e.messages.FindByIDs(ctx, dedupe(ids))
	if err != nil {
		return err
	}
	index := make(map[string]*models.Message, len(msgs))
	for _, m := range msgs {
		index[m.ID] = m
	}
	for _, c := range chats {
		if m, ok := index[c.LatestMessageID]; ok {
			cp := *m
			c.LatestMessage = &cp
		}
	}
	return nil
}

func (e *Expander) senders(ctx context.Context, msgs []*models.Message, p Projection) error {
	var ids []string
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	if len(ids) == 0 {
		return nil
	}
	index, err := e.userIndex(ctx, ids)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		sender := resolveUser(index, m.SenderID, p)
		m.Sender = &sender
	}
	return nil
}

func (e *Expander) messageChats(ctx context.Context, msgs []*models.Message) error {
	var ids []string
	for _, m := range msgs {
		ids = append(ids, m.ChatID)
	}
	if len(ids) == 0 {
		return nil
	}
	chats, err := e.chats.FindByIDs(ctx, dedupe(ids))
	if err != nil {
		return err
	}
	index := make(map[string]*models.Chat, len(chats))
	for _, c := range chats {
		index[c.ID] = c
	}
	for _, m := range msgs {
		if c, ok := index[m.ChatID]; ok {
			// each message gets its own copy so nested steps don't alias
			m.Chat = c.Clone()
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
