// Package hmis provides typed services over the session-aware client, one
// per backend module: registry, scheduling, emergency, laboratory,
// admissions, billing and settings.
package hmis

import (
	"context"
	"errors"
	"fmt"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
	"github.com/medisur/hmis-go/internal/session"
)

type AuthService struct {
	api   *client.Client
	store session.Store
}

func NewAuthService(api *client.Client, store session.Store) *AuthService {
	return &AuthService{api: api, store: store}
}

// Login authenticates and persists the credential pair and tenant scope so
// every subsequent request carries them.
func (s *AuthService) Login(ctx context.Context, email, password, tenant string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Email: email, Password: password, Tenant: tenant}

	var res models.LoginResponse
	if err := s.api.Post(ctx, "/auth/login", req, &res); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.store.SetCredentials(res.AccessToken, res.RefreshToken); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}
	if res.TenantID != "" {
		if err := s.store.SetTenant(res.TenantID); err != nil {
			return nil, fmt.Errorf("persist tenant: %w", err)
		}
	}

	return &res, nil
}

// Logout revokes the session server-side, then clears local state. Local
// state is cleared even when the server call fails: a half-logged-out client
// must not keep sending a possibly revoked credential.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.api.Post(ctx, "/auth/logout", nil, nil)
	if clearErr := s.store.Clear(); clearErr != nil {
		return fmt.Errorf("clear session: %w", clearErr)
	}
	if err != nil && !errors.Is(err, client.ErrSessionExpired) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
