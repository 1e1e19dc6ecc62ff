package hmis

import (
	"context"
	"fmt"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
)

type SettingsService struct {
	api *client.Client
}

func NewSettingsService(api *client.Client) *SettingsService {
	return &SettingsService{api: api}
}

func (s *SettingsService) CurrentTenant(ctx context.Context) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.api.Get(ctx, "/settings/tenant", nil, &tenant); err != nil {
		return nil, fmt.Errorf("current tenant: %w", err)
	}
	return &tenant, nil
}

func (s *SettingsService) ListUsers(ctx context.Context, page int) (*models.Page[models.UserInfo], error) {
	params := client.Params{}
	if page > 0 {
		params["page"] = page
	}

	var users models.Page[models.UserInfo]
	if err := s.api.Get(ctx, "/settings/users", params, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &users, nil
}
