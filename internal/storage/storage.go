// Package storage holds the account and chat history records served over
// REST. The relay itself never reads from it.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// User represents a persisted account record.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one stored chat line, direct (Receiver set) or room (RoomKey set).
type Message struct {
	ID         uint      `json:"id"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name"`
	Receiver   string    `json:"receiver,omitempty"`
	RoomKey    string    `json:"room_key,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store defines persistence operations used by the server.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	SaveMessage(ctx context.Context, msg *Message) error
	Conversation(ctx context.Context, a, b string, limit int) ([]Message, error)
	RoomHistory(ctx context.Context, roomKey string, limit int) ([]Message, error)
}
