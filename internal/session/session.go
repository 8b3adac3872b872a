// Package session stores hashed refresh tokens.
package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("refresh session not found or expired")

// Store keeps refresh sessions keyed by token hash.
type Store interface {
	Save(ctx context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time) error
	// Consume returns the owner of a live session and revokes it.
	Consume(ctx context.Context, tokenHash string) (uuid.UUID, error)
	Revoke(ctx context.Context, tokenHash string) error
	// RevokeUser drops every session of a user.
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
