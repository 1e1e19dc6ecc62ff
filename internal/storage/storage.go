package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/medisur/hmis-go/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GatewaySessionRepository persists the gateway's server-held sessions.
type GatewaySessionRepository interface {
	CreateSession(ctx context.Context, session models.GatewaySession) (int64, error)
	FindBySelector(ctx context.Context, selector string) (*models.GatewaySession, error)
	// RotateTokens replaces the backend credential pair after a refresh.
	RotateTokens(ctx context.Context, selector, accessToken, refreshToken string) error
	DeleteSession(ctx context.Context, selector string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RevocationRepository is the logout blacklist: a revoked selector stays
// listed until the cookie it was minted into has expired anyway.
type RevocationRepository interface {
	RevokeSession(ctx context.Context, selector string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, selector string) (bool, error)
}
