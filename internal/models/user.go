package models

import (
	"encoding/json"
	"time"
)

// User is owned by the account service; this core only reads it.
type User struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name,omitempty"`
	Email        string     `json:"email,omitempty"`
	Avatar       string     `json:"pic,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	PasswordHash string     `json:"-"` // never leaves the store
}

// UnmarshalJSON accepts either a user object or a bare id string, since
// clients may send unexpanded references.
func (u *User) UnmarshalJSON(data []byte) error {
	if id, ok, err := bareID(data); ok || err != nil {
		*u = User{ID: id}
		return err
	}
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	return nil
}
