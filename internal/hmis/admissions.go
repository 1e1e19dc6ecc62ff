package hmis

import (
	"context"
	"fmt"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
)

type AdmissionService struct {
	api *client.Client
}

func NewAdmissionService(api *client.Client) *AdmissionService {
	return &AdmissionService{api: api}
}

// Census returns per-ward occupancy counts.
func (s *AdmissionService) Census(ctx context.Context) ([]models.WardCensus, error) {
	var census []models.WardCensus
	if err := s.api.Get(ctx, "/admissions/census", nil, &census); err != nil {
		return nil, fmt.Errorf("bed census: %w", err)
	}
	return census, nil
}

func (s *AdmissionService) ListBeds(ctx context.Context, ward, status string) ([]models.Bed, error) {
	params := client.Params{"ward": ward, "status": status}

	var beds []models.Bed
	if err := s.api.Get(ctx, "/admissions/beds", params, &beds); err != nil {
		return nil, fmt.Errorf("list beds: %w", err)
	}
	return beds, nil
}

type AdmitRequest struct {
	PatientID       string `json:"patient_id"`
	BedID           string `json:"bed_id"`
	AdmittingDoctor string `json:"admitting_doctor"`
	Diagnosis       string `json:"diagnosis"`
}

func (s *AdmissionService) Admit(ctx context.Context, req AdmitRequest) (*models.Admission, error) {
	var admission models.Admission
	if err := s.api.Post(ctx, "/admissions", req, &admission); err != nil {
		return nil, fmt.Errorf("admit patient: %w", err)
	}
	return &admission, nil
}

func (s *AdmissionService) Discharge(ctx context.Context, admissionID string) error {
	if err := s.api.Post(ctx, "/admissions/"+admissionID+"/discharge", nil, nil); err != nil {
		return fmt.Errorf("discharge admission %s: %w", admissionID, err)
	}
	return nil
}
