package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parley/internal/models"
)

const messageColumns = `id, seq, sender_id, chat_id, content, created_at`

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{DB: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	const q = `
                INSERT INTO messages (id, sender_id, chat_id, content)
                VALUES ($1, $2, $3, $4)
                RETURNING seq, created_at
        `
	id := uuid.NewString()
	if err := r.DB.QueryRowContext(ctx, q, id, msg.SenderID, msg.ChatID, msg.Content).
		Scan(&msg.Seq, &msg.CreatedAt); err != nil {
		return mapPQError(err)
	}
	msg.ID = id
	return nil
}

func (r *messageRepository) FindByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	q := `SELECT ` + messageColumns + `
                FROM messages
                WHERE chat_id = $1
                ORDER BY created_at ASC, seq ASC`
	return r.query(ctx, q, chatID)
}

func (r *messageRepository) FindByIDs(ctx context.Context, ids []string) ([]*models.Message, error) {
	if len(ids) == 0 {
		return []*models.Message{}, nil
	}
	return r.query(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ANY($1)`, pq.Array(ids))
}

func (r *messageRepository) query(ctx context.Context, q string, args ...any) ([]*models.Message, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.Seq, &msg.SenderID, &msg.ChatID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
