package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parley/internal/models"
	"parley/internal/utils"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const chatColumns = `id, chat_name, is_group_chat, users,
       COALESCE(group_admin, ''), COALESCE(latest_message_id, ''), COALESCE(direct_key, ''),
       created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type chatRepository struct {
	DB *sql.DB
}

func NewChatRepository(db *sql.DB) ChatRepository {
	return &chatRepository{DB: db}
}

func scanChat(row rowScanner) (*models.Chat, error) {
	chat := &models.Chat{}
	var users pq.StringArray
	if err := row.Scan(
		&chat.ID, &chat.ChatName, &chat.IsGroupChat, &users,
		&chat.GroupAdminID, &chat.LatestMessageID, &chat.DirectKey,
		&chat.CreatedAt, &chat.UpdatedAt,
	); err != nil {
		return nil, err
	}
	chat.UserIDs = []string(users)
	return chat, nil
}

func (r *chatRepository) queryChats(ctx context.Context, q string, args ...any) ([]*models.Chat, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := []*models.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (r *chatRepository) queryChat(ctx context.Context, q string, args ...any) (*models.Chat, error) {
	chat, err := scanChat(r.DB.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return chat, err
}

// Containment, unlike "= ANY(users)", can use chats_users_gin.
const findByMemberQuery = `SELECT ` + chatColumns + `
                FROM chats
                WHERE users @> ARRAY[$1::text]
                ORDER BY updated_at DESC, id`

func (r *chatRepository) FindByMember(ctx context.Context, userID string) ([]*models.Chat, error) {
	return r.queryChats(ctx, findByMemberQuery, userID)
}

func (r *chatRepository) FindDirect(ctx context.Context, a, b string) (*models.Chat, error) {
	chat, err := r.queryChat(ctx, `SELECT `+chatColumns+` FROM chats WHERE direct_key = $1`, utils.DirectKey(a, b))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return chat, err
}

func (r *chatRepository) FindByID(ctx context.Context, id string) (*models.Chat, error) {
	return r.queryChat(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id)
}

func (r *chatRepository) FindByIDs(ctx context.Context, ids []string) ([]*models.Chat, error) {
	if len(ids) == 0 {
		return []*models.Chat{}, nil
	}
	return r.queryChats(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = ANY($1)`, pq.Array(ids))
}

func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	const q = `
                INSERT INTO chats (id, chat_name, is_group_chat, users, group_admin, direct_key)
                VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
                ON CONFLICT (direct_key) DO NOTHING
                RETURNING created_at, updated_at
        `
	id := uuid.NewString()
	err := r.DB.QueryRowContext(ctx, q,
		id, chat.ChatName, chat.IsGroupChat, pq.Array(chat.UserIDs), chat.GroupAdminID, chat.DirectKey,
	).Scan(&chat.CreatedAt, &chat.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// ON CONFLICT swallowed the insert: another writer owns this pair.
		return ErrDuplicateKey
	}
	if err != nil {
		return mapPQError(err)
	}
	chat.ID = id
	return nil
}

func (r *chatRepository) UpdateName(ctx context.Context, id, name string) (*models.Chat, error) {
	q := `UPDATE chats SET chat_name = $2, updated_at = NOW()
                WHERE id = $1
                RETURNING ` + chatColumns
	return r.queryChat(ctx, q, id, name)
}

func (r *chatRepository) PushUser(ctx context.Context, id, userID string) (*models.Chat, error) {
	q := `UPDATE chats
                SET users = CASE WHEN $2::text = ANY(users) THEN users ELSE array_append(users, $2::text) END,
                    updated_at = NOW()
                WHERE id = $1
                RETURNING ` + chatColumns
	return r.queryChat(ctx, q, id, userID)
}

func (r *chatRepository) PullUser(ctx context.Context, id, userID string) (*models.Chat, error) {
	q := `UPDATE chats SET users = array_remove(users, $2::text), updated_at = NOW()
                WHERE id = $1
                RETURNING ` + chatColumns
	return r.queryChat(ctx, q, id, userID)
}

func (r *chatRepository) SetLatestMessage(ctx context.Context, id, messageID string) (*models.Chat, error) {
	q := `UPDATE chats SET latest_message_id = $2, updated_at = NOW()
                WHERE id = $1
                RETURNING ` + chatColumns
	return r.queryChat(ctx, q, id, messageID)
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrDuplicateKey
		case pqForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}
