package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/medisur/hmis-go/internal/models"
	"github.com/medisur/hmis-go/internal/storage"
)

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.GatewaySession) (int64, error) {
	query := `INSERT INTO gateway_sessions (selector, verifier_hash, access_token, refresh_token, tenant_id, user_agent, client_ip, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		session.Selector,
		session.VerifierHash,
		session.AccessToken,
		session.RefreshToken,
		session.TenantID,
		session.UserAgent,
		session.IPAddress,
		session.CreatedAt,
		session.ExpiresAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert gateway session: %w", err)
	}
	return id, nil
}

func (r *SessionRepository) FindBySelector(ctx context.Context, selector string) (*models.GatewaySession, error) {
	var session models.GatewaySession
	query := `SELECT id, selector, verifier_hash, access_token, refresh_token, tenant_id, user_agent, client_ip, created_at, expires_at
	          FROM gateway_sessions WHERE selector = $1`
	err := r.db.QueryRowContext(ctx, query, selector).Scan(
		&session.ID,
		&session.Selector,
		&session.VerifierHash,
		&session.AccessToken,
		&session.RefreshToken,
		&session.TenantID,
		&session.UserAgent,
		&session.IPAddress,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session with selector %s: %w", selector, storage.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get gateway session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) RotateTokens(ctx context.Context, selector, accessToken, refreshToken string) error {
	query := `UPDATE gateway_sessions SET access_token = $2, refresh_token = $3 WHERE selector = $1`
	res, err := r.db.ExecContext(ctx, query, selector, accessToken, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to rotate session tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, selector string) error {
	query := `DELETE FROM gateway_sessions WHERE selector = $1`
	if _, err := r.db.ExecContext(ctx, query, selector); err != nil {
		return fmt.Errorf("failed to delete gateway session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM gateway_sessions WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
