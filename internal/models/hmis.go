package models

import "time"

// Page is the paginated list envelope used by every list endpoint.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type Patient struct {
	ID         string    `json:"id"`
	MRN        string    `json:"mrn"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	BirthDate  string    `json:"birth_date"`
	Sex        string    `json:"sex"`
	DocumentID string    `json:"document_id"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type Appointment struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	PractitionerID string    `json:"practitioner_id"`
	Status         string    `json:"status"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Reason         string    `json:"reason"`
	Room           string    `json:"room"`
}

// TriageEntry is one row of the emergency department board.
type TriageEntry struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Level     int       `json:"level"`
	Complaint string    `json:"complaint"`
	Status    string    `json:"status"`
	ArrivedAt time.Time `json:"arrived_at"`
}

type LabOrder struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	OrderedBy string    `json:"ordered_by"`
	TestCode  string    `json:"test_code"`
	TestName  string    `json:"test_name"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	OrderedAt time.Time `json:"ordered_at"`
}

type LabResult struct {
	OrderID        string    `json:"order_id"`
	Analyte        string    `json:"analyte"`
	Value          string    `json:"value"`
	Unit           string    `json:"unit"`
	ReferenceRange string    `json:"reference_range"`
	Abnormal       bool      `json:"abnormal"`
	ResultedAt     time.Time `json:"resulted_at"`
}

type Bed struct {
	ID        string `json:"id"`
	Ward      string `json:"ward"`
	Number    string `json:"number"`
	Status    string `json:"status"`
	PatientID string `json:"patient_id,omitempty"`
}

type WardCensus struct {
	Ward      string `json:"ward"`
	Total     int    `json:"total"`
	Occupied  int    `json:"occupied"`
	Available int    `json:"available"`
}

type Admission struct {
	ID              string     `json:"id"`
	PatientID       string     `json:"patient_id"`
	BedID           string     `json:"bed_id"`
	AdmittingDoctor string     `json:"admitting_doctor"`
	Diagnosis       string     `json:"diagnosis"`
	AdmittedAt      time.Time  `json:"admitted_at"`
	DischargedAt    *time.Time `json:"discharged_at,omitempty"`
}

// Invoice carries the DGII fiscal fields: the NCF is a fiscal receipt number
// assigned server-side from the tenant's authorized sequence.
type Invoice struct {
	ID        string        `json:"id"`
	PatientID string        `json:"patient_id"`
	NCF       string        `json:"ncf"`
	NCFType   string        `json:"ncf_type"`
	RNC       string        `json:"rnc"`
	Subtotal  float64       `json:"subtotal"`
	ITBIS     float64       `json:"itbis"`
	Total     float64       `json:"total"`
	Status    string        `json:"status"`
	IssuedAt  time.Time     `json:"issued_at"`
	Lines     []InvoiceLine `json:"lines"`
}

type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

type Tenant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RNC      string `json:"rnc"`
	Timezone string `json:"timezone"`
}
