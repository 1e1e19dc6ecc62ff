package hmis

import (
	"context"
	"fmt"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
)

type LabService struct {
	api *client.Client
}

func NewLabService(api *client.Client) *LabService {
	return &LabService{api: api}
}

type LabOrderListParams struct {
	PatientID string
	Status    string
	Page      int
}

func (s *LabService) ListOrders(ctx context.Context, p LabOrderListParams) (*models.Page[models.LabOrder], error) {
	params := client.Params{
		"patient_id": p.PatientID,
		"status":     p.Status,
	}
	if p.Page > 0 {
		params["page"] = p.Page
	}

	var page models.Page[models.LabOrder]
	if err := s.api.Get(ctx, "/labs/orders", params, &page); err != nil {
		return nil, fmt.Errorf("list lab orders: %w", err)
	}
	return &page, nil
}

type CreateLabOrderRequest struct {
	PatientID string `json:"patient_id"`
	TestCode  string `json:"test_code"`
	Priority  string `json:"priority"`
}

func (s *LabService) CreateOrder(ctx context.Context, req CreateLabOrderRequest) (*models.LabOrder, error) {
	var order models.LabOrder
	if err := s.api.Post(ctx, "/labs/orders", req, &order); err != nil {
		return nil, fmt.Errorf("create lab order: %w", err)
	}
	return &order, nil
}

func (s *LabService) Results(ctx context.Context, orderID string) ([]models.LabResult, error) {
	var results []models.LabResult
	if err := s.api.Get(ctx, "/labs/orders/"+orderID+"/results", nil, &results); err != nil {
		return nil, fmt.Errorf("lab results for %s: %w", orderID, err)
	}
	return results, nil
}
