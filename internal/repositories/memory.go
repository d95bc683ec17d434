package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"parley/internal/models"
	"parley/internal/utils"
)

// clock hands out strictly increasing timestamps so ordering by time is
// stable even when calls land within the same tick.
type clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryUserRepository(users ...*models.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]*models.User)}
	for _, u := range users {
		r.Put(u)
	}
	return r
}

// Put inserts or replaces a user.
func (r *MemoryUserRepository) Put(u *models.User) {
	cp := *u
	r.mu.Lock()
	r.users[u.ID] = &cp
	r.mu.Unlock()
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type MemoryChatRepository struct {
	mu       sync.Mutex
	chats    map[string]*models.Chat
	byDirect map[string]string
	clock    clock
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		chats:    make(map[string]*models.Chat),
		byDirect: make(map[string]string),
	}
}

func (r *MemoryChatRepository) FindByMember(_ context.Context, userID string) ([]*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Chat{}
	for _, c := range r.chats {
		if c.HasMember(userID) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *MemoryChatRepository) FindDirect(_ context.Context, a, b string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byDirect[utils.DirectKey(a, b)]
	if !ok {
		return nil, nil
	}
	return r.chats[id].Clone(), nil
}

func (r *MemoryChatRepository) FindByID(_ context.Context, id string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryChatRepository) FindByIDs(_ context.Context, ids []string) ([]*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Chat, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.chats[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *MemoryChatRepository) Create(_ context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.DirectKey != "" {
		if _, taken := r.byDirect[chat.DirectKey]; taken {
			return ErrDuplicateKey
		}
	}
	now := r.clock.now()
	chat.ID = uuid.NewString()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	r.chats[chat.ID] = chat.Clone()
	if chat.DirectKey != "" {
		r.byDirect[chat.DirectKey] = chat.ID
	}
	return nil
}

func (r *MemoryChatRepository) update(id string, fn func(c *models.Chat)) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(c)
	c.UpdatedAt = r.clock.now()
	return c.Clone(), nil
}

func (r *MemoryChatRepository) UpdateName(_ context.Context, id, name string) (*models.Chat, error) {
	return r.update(id, func(c *models.Chat) { c.ChatName = name })
}

func (r *MemoryChatRepository) PushUser(_ context.Context, id, userID string) (*models.Chat, error) {
	return r.update(id, func(c *models.Chat) {
		if !c.HasMember(userID) {
			c.UserIDs = append(c.UserIDs, userID)
		}
	})
}

func (r *MemoryChatRepository) PullUser(_ context.Context, id, userID string) (*models.Chat, error) {
	return r.update(id, func(c *models.Chat) {
		kept := c.UserIDs[:0]
		for _, u := range c.UserIDs {
			if u != userID {
				kept = append(kept, u)
			}
		}
		c.UserIDs = kept
	})
}

func (r *MemoryChatRepository) SetLatestMessage(_ context.Context, id, messageID string) (*models.Chat, error) {
	return r.update(id, func(c *models.Chat) { c.LatestMessageID = messageID })
}

type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	byChat   map[string][]string
	seq      int64
	clock    clock
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		messages: make(map[string]*models.Message),
		byChat:   make(map[string][]string),
	}
}

func (r *MemoryMessageRepository) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = uuid.NewString()
	msg.CreatedAt = r.clock.now()
	msg.Seq = r.seq
	r.messages[msg.ID] = msg.Clone()
	r.byChat[msg.ChatID] = append(r.byChat[msg.ChatID], msg.ID)
	return nil
}

func (r *MemoryMessageRepository) FindByChat(_ context.Context, chatID string) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byChat[chatID]
	out := make([]*models.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.messages[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryMessageRepository) FindByIDs(_ context.Context, ids []string) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.messages[id]; ok {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}
