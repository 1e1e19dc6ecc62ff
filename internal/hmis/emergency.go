package hmis

import (
	"context"
	"fmt"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
)

type EmergencyService struct {
	api *client.Client
}

func NewEmergencyService(api *client.Client) *EmergencyService {
	return &EmergencyService{api: api}
}

// Board returns the current emergency department triage board, most urgent
// first.
func (s *EmergencyService) Board(ctx context.Context) ([]models.TriageEntry, error) {
	var entries []models.TriageEntry
	if err := s.api.Get(ctx, "/emergency/board", nil, &entries); err != nil {
		return nil, fmt.Errorf("emergency board: %w", err)
	}
	return entries, nil
}

func (s *EmergencyService) UpdateTriageLevel(ctx context.Context, entryID string, level int) error {
	body := map[string]int{"level": level}
	if err := s.api.Patch(ctx, "/emergency/board/"+entryID, body, nil); err != nil {
		return fmt.Errorf("update triage level for %s: %w", entryID, err)
	}
	return nil
}
