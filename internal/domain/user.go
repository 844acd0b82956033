// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 36
	anonPrefix     = "anon:"
	guestName      = "guest"
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrReservedUserID  = errors.New("user id uses the reserved anon: prefix")
)

// UserID is the stable identity issued by the auth layer.
type UserID string

// ConnID identifies one live transport connection.
type ConnID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser validates an identity handed over at handshake time.
// An empty id yields an anonymous user; an empty username falls back to the id.
func NewUser(id, username string) (*User, error) {
	id = strings.TrimSpace(id)
	username = strings.TrimSpace(username)
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if UserID(id).IsAnonymous() {
		return nil, ErrReservedUserID
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	if username == "" {
		username = id
	}
	if username == "" {
		username = guestName
	}
	return &User{ID: UserID(id), Username: username}, nil
}

func (u *User) Identified() bool { return u.ID != "" }

// AnonymousID is the room-local identity of a connection without a user id.
func AnonymousID(conn ConnID) UserID { return UserID(anonPrefix + string(conn)) }

// IsAnonymous reports ids minted by AnonymousID. No identified user may
// carry one.
func (id UserID) IsAnonymous() bool { return strings.HasPrefix(string(id), anonPrefix) }
