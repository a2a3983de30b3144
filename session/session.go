// Package session keeps server-side login sessions and issues the signed
// tokens clients present to identify them.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Store when the id is unknown or expired.
	ErrNotFound = errors.New("session not found")
	// ErrNoSession is returned by the Manager when a request is anonymous.
	ErrNoSession = errors.New("no valid session")
)

type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions by id. Delete of an unknown id is not an error.
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
