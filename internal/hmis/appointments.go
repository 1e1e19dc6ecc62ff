package hmis

import (
	"context"
	"fmt"
	"time"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
)

type AppointmentService struct {
	api *client.Client
}

func NewAppointmentService(api *client.Client) *AppointmentService {
	return &AppointmentService{api: api}
}

type AppointmentListParams struct {
	From           time.Time
	To             time.Time
	PractitionerID string
	Status         string
	Page           int
}

func (s *AppointmentService) List(ctx context.Context, p AppointmentListParams) (*models.Page[models.Appointment], error) {
	params := client.Params{
		"practitioner_id": p.PractitionerID,
		"status":          p.Status,
	}
	if !p.From.IsZero() {
		params["from"] = p.From
	}
	if !p.To.IsZero() {
		params["to"] = p.To
	}
	if p.Page > 0 {
		params["page"] = p.Page
	}

	var page models.Page[models.Appointment]
	if err := s.api.Get(ctx, "/appointments", params, &page); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return &page, nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.api.Get(ctx, "/appointments/"+id, nil, &appt); err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	if err := s.api.Post(ctx, "/appointments/"+id+"/cancel", body, nil); err != nil {
		return fmt.Errorf("cancel appointment %s: %w", id, err)
	}
	return nil
}
