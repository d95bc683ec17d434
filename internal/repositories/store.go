package repositories

import (
	"context"
	"errors"

	"parley/internal/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

type UserRepository interface {
	// FindByIDs skips unknown ids.
	FindByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

type ChatRepository interface {
	// FindByMember returns chats containing userID, most recently updated first.
	FindByMember(ctx context.Context, userID string) ([]*models.Chat, error)
	// FindDirect returns the direct chat keyed by the pair {a, b}, or nil
	// when there is none. Membership changes never move a chat off its key.
	FindDirect(ctx context.Context, a, b string) (*models.Chat, error)
	FindByID(ctx context.Context, id string) (*models.Chat, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.Chat, error)
	// Create assigns ID and timestamps. A DirectKey collision returns
	// ErrDuplicateKey.
	Create(ctx context.Context, chat *models.Chat) error
	UpdateName(ctx context.Context, id, name string) (*models.Chat, error)
	// PushUser appends userID unless already present.
	PushUser(ctx context.Context, id, userID string) (*models.Chat, error)
	// PullUser removes userID; a non-member is a no-op.
	PullUser(ctx context.Context, id, userID string) (*models.Chat, error)
	SetLatestMessage(ctx context.Context, id, messageID string) (*models.Chat, error)
}

type MessageRepository interface {
	// Create assigns ID, CreatedAt and Seq.
	Create(ctx context.Context, msg *models.Message) error
	// FindByChat returns messages oldest first by (CreatedAt, Seq).
	FindByChat(ctx context.Context, chatID string) ([]*models.Message, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.Message, error)
}
