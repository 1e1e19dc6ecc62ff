package hmis_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/hmis"
	"github.com/medisur/hmis-go/internal/models"
	"github.com/medisur/hmis-go/internal/session"
	"github.com/medisur/hmis-go/internal/util"
)

func newBackend(t *testing.T, handler http.HandlerFunc) (*client.Client, session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	cfg := &util.ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}
	return client.New(cfg, store, util.NewNopLogger()), store
}

func respond(t *testing.T, w http.ResponseWriter, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestLoginPersistsCredentialsAndTenant(t *testing.T) {
	api, store := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)

		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dr.garcia@medisur.do", req.Email)
		assert.Equal(t, "hospital-1", req.Tenant)

		respond(t, w, models.LoginResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TenantID:     "hospital-1",
			User:         models.UserInfo{ID: "u-1", FullName: "Ana García", Role: "physician"},
		})
	})

	svc := hmis.NewAuthService(api, store)
	res, err := svc.Login(context.Background(), "dr.garcia@medisur.do", "s3cretpass", "hospital-1")
	require.NoError(t, err)
	assert.Equal(t, "physician", res.User.Role)

	access, refresh := store.Credentials()
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)
	assert.Equal(t, "hospital-1", store.Tenant())
}

// Local state must be wiped even when the server-side revocation fails.
func TestLogoutClearsLocalStateOnServerError(t *testing.T) {
	api, store := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"revocation backend down"}`))
	})
	require.NoError(t, store.SetCredentials("access-1", "refresh-1"))

	svc := hmis.NewAuthService(api, store)
	err := svc.Logout(context.Background())
	require.Error(t, err)

	access, refresh := store.Credentials()
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestPatientListQueryShape(t *testing.T) {
	var gotQuery url.Values
	active := true

	api, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/patients", r.URL.Path)
		gotQuery = r.URL.Query()
		respond(t, w, models.Page[models.Patient]{
			Items: []models.Patient{{ID: "p-1", MRN: "MRN-001", FirstName: "Luis"}},
			Total: 1, Page: 2, PageSize: 25,
		})
	})

	svc := hmis.NewPatientService(api)
	page, err := svc.List(context.Background(), hmis.PatientListParams{Search: "luis", Page: 2, PageSize: 25, Active: &active})
	require.NoError(t, err)

	assert.Equal(t, "luis", gotQuery.Get("search"))
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "25", gotQuery.Get("page_size"))
	assert.Equal(t, "true", gotQuery.Get("active"))

	require.Len(t, page.Items, 1)
	assert.Equal(t, "MRN-001", page.Items[0].MRN)
	assert.Equal(t, 1, page.Total)
}

func TestPatientListOmitsUnsetFilters(t *testing.T) {
	var gotQuery url.Values

	api, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		respond(t, w, models.Page[models.Patient]{})
	})

	svc := hmis.NewPatientService(api)
	_, err := svc.List(context.Background(), hmis.PatientListParams{})
	require.NoError(t, err)

	assert.NotContains(t, gotQuery, "search")
	assert.NotContains(t, gotQuery, "page")
	assert.NotContains(t, gotQuery, "active")
}

func TestInvoiceFiscalFieldsDecode(t *testing.T) {
	api, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/billing/invoices/inv-1", r.URL.Path)
		respond(t, w, map[string]interface{}{
			"id":       "inv-1",
			"ncf":      "B0100000045",
			"ncf_type": "B01",
			"rnc":      "131246789",
			"status":   "issued",
			"subtotal": 1000.0,
			"itbis":    180.0,
			"total":    1180.0,
			"lines": []map[string]interface{}{
				{"description": "Consulta general", "quantity": 1, "unit_price": 1000.0, "amount": 1000.0},
			},
		})
	})

	svc := hmis.NewBillingService(api)
	inv, err := svc.GetInvoice(context.Background(), "inv-1")
	require.NoError(t, err)

	assert.Equal(t, "B0100000045", inv.NCF)
	assert.Equal(t, "B01", inv.NCFType)
	assert.Equal(t, "131246789", inv.RNC)
	assert.InDelta(t, 180.0, inv.ITBIS, 0.001)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Consulta general", inv.Lines[0].Description)
}

func TestVoidInvoiceSendsReason(t *testing.T) {
	var gotBody map[string]string

	api, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/billing/invoices/inv-1/void", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	})

	svc := hmis.NewBillingService(api)
	require.NoError(t, svc.VoidInvoice(context.Background(), "inv-1", "duplicate charge"))
	assert.Equal(t, "duplicate charge", gotBody["reason"])
}
