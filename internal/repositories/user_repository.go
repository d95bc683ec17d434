package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"parley/internal/models"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	const q = `
                SELECT id, name, email, pic, password_hash, created_at
                FROM users
                WHERE id = ANY($1)
        `
	rows, err := r.DB.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0, len(ids))
	for rows.Next() {
		var (
			u       models.User
			created time.Time
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.PasswordHash, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = &created
		users = append(users, &u)
	}
	return users, rows.Err()
}
