package hmis

import (
	"context"
	"fmt"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
)

type PatientService struct {
	api *client.Client
}

func NewPatientService(api *client.Client) *PatientService {
	return &PatientService{api: api}
}

type PatientListParams struct {
	Search   string
	Page     int
	PageSize int
	Active   *bool
}

func (s *PatientService) List(ctx context.Context, p PatientListParams) (*models.Page[models.Patient], error) {
	params := client.Params{"search": p.Search}
	if p.Page > 0 {
		params["page"] = p.Page
	}
	if p.PageSize > 0 {
		params["page_size"] = p.PageSize
	}
	if p.Active != nil {
		params["active"] = *p.Active
	}

	var page models.Page[models.Patient]
	if err := s.api.Get(ctx, "/patients", params, &page); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return &page, nil
}

func (s *PatientService) Get(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := s.api.Get(ctx, "/patients/"+id, nil, &patient); err != nil {
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return &patient, nil
}

type CreatePatientRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	BirthDate  string `json:"birth_date"`
	Sex        string `json:"sex"`
	DocumentID string `json:"document_id"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

func (s *PatientService) Create(ctx context.Context, req CreatePatientRequest) (*models.Patient, error) {
	var patient models.Patient
	if err := s.api.Post(ctx, "/patients", req, &patient); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return &patient, nil
}
