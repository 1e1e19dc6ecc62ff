package hmis

import (
	"context"
	"fmt"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
)

type BillingService struct {
	api *client.Client
}

func NewBillingService(api *client.Client) *BillingService {
	return &BillingService{api: api}
}

type InvoiceListParams struct {
	PatientID string
	Status    string
	NCFType   string
	Page      int
}

func (s *BillingService) ListInvoices(ctx context.Context, p InvoiceListParams) (*models.Page[models.Invoice], error) {
	params := client.Params{
		"patient_id": p.PatientID,
		"status":     p.Status,
		"ncf_type":   p.NCFType,
	}
	if p.Page > 0 {
		params["page"] = p.Page
	}

	var page models.Page[models.Invoice]
	if err := s.api.Get(ctx, "/billing/invoices", params, &page); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return &page, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.api.Get(ctx, "/billing/invoices/"+id, nil, &invoice); err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return &invoice, nil
}

type IssueInvoiceRequest struct {
	PatientID string               `json:"patient_id"`
	NCFType   string               `json:"ncf_type"`
	RNC       string               `json:"rnc,omitempty"`
	Lines     []models.InvoiceLine `json:"lines"`
}

// Issue creates a fiscal invoice. The backend assigns the NCF from the
// tenant's authorized DGII sequence; the client never fabricates one.
func (s *BillingService) Issue(ctx context.Context, req IssueInvoiceRequest) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.api.Post(ctx, "/billing/invoices", req, &invoice); err != nil {
		return nil, fmt.Errorf("issue invoice: %w", err)
	}
	return &invoice, nil
}

func (s *BillingService) VoidInvoice(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	if err := s.api.Post(ctx, "/billing/invoices/"+id+"/void", body, nil); err != nil {
		return fmt.Errorf("void invoice %s: %w", id, err)
	}
	return nil
}
