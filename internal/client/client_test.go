package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
	"github.com/medisur/hmis-go/internal/session"
	"github.com/medisur/hmis-go/internal/util"
)

func newTestClient(t *testing.T, baseURL string, store session.Store, opts ...client.Option) *client.Client {
	t.Helper()
	cfg := &util.ClientConfig{BaseURL: baseURL, Timeout: 5 * time.Second}
	return client.New(cfg, store, util.NewNopLogger(), opts...)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Many requests failing with 401 at once must trigger exactly one refresh
// call; everyone else attaches to it.
func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	var refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, http.StatusOK, models.TokenPairResponse{AccessToken: "access-2", RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("/patients", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, models.Page[models.Patient]{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := session.NewMemoryStore()
	require.NoError(t, store.SetCredentials("stale-access", "refresh-1"))
	api := newTestClient(t, srv.URL, store)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			var page models.Page[models.Patient]
			errs[i] = api.Get(context.Background(), "/patients", nil, &page)
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		require.NoErrorf(t, err, "worker %d", i)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshCalls))

	access, refresh := store.Credentials()
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-2", refresh)
}

// A 401 that survives a successful refresh is terminal: exactly two
// attempts, session cleared, expiry hook fired, never a third attempt.
func TestRetryAtMostOnce(t *testing.T) {
	var attempts, refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, models.TokenPairResponse{AccessToken: "access-2", RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "nope"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := session.NewMemoryStore()
	require.NoError(t, store.SetCredentials("access-1", "refresh-1"))
	require.NoError(t, store.SetTenant("hospital-1"))

	var expired int64
	api := newTestClient(t, srv.URL, store, client.WithSessionExpiredHook(func() {
		atomic.AddInt64(&expired, 1)
	}))

	err := api.Get(context.Background(), "/protected", nil, nil)
	require.ErrorIs(t, err, client.ErrSessionExpired)

	assert.Equal(t, int64(2), atomic.LoadInt64(&attempts))
	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshCalls))
	assert.Equal(t, int64(1), atomic.LoadInt64(&expired))

	access, refresh := store.Credentials()
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	assert.Empty(t, store.Tenant())
}

// Without a refresh credential there is no refresh path: one attempt, then
// straight to the terminal outcome.
func TestNoRefreshCredentialIsTerminal(t *testing.T) {
	var attempts, refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, models.TokenPairResponse{AccessToken: "a", RefreshToken: "r"})
	})
	mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "nope"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := session.NewMemoryStore()
	require.NoError(t, store.SetCredentials("access-only", ""))
	api := newTestClient(t, srv.URL, store)

	err := api.Get(context.Background(), "/protected", nil, nil)
	require.ErrorIs(t, err, client.ErrSessionExpired)

	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))
	assert.Equal(t, int64(0), atomic.LoadInt64(&refreshCalls))
}

// An access credential inside the expiry leeway is rotated before the first
// attempt, so the request never burns a round trip on a predictable 401.
func TestProactiveRefreshBeforeExpiry(t *testing.T) {
	var refreshCalls, attempts int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, models.TokenPairResponse{AccessToken: "access-2", RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("/patients", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		if r.Header.Get("Authorization") != "Bearer access-2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, models.Page[models.Patient]{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	expiring := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Second)),
	})
	signed, err := expiring.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	store := session.NewMemoryStore()
	require.NoError(t, store.SetCredentials(signed, "refresh-1"))
	api := newTestClient(t, srv.URL, store)

	require.NoError(t, api.Get(context.Background(), "/patients", nil, nil))

	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshCalls))
	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))

	access, _ := store.Credentials()
	assert.Equal(t, "access-2", access)
}

func TestTenantHeader(t *testing.T) {
	var gotTenant string
	var tenantPresent bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get(client.HeaderTenant)
		_, tenantPresent = r.Header[client.HeaderTenant]
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	require.NoError(t, store.SetCredentials("access", "refresh"))
	require.NoError(t, store.SetTenant("hospital-1"))
	api := newTestClient(t, srv.URL, store)

	require.NoError(t, api.Get(context.Background(), "/ping", nil, nil))
	assert.Equal(t, "hospital-1", gotTenant)

	// Bearer variant omits the header entirely when no tenant is set.
	require.NoError(t, store.SetTenant(""))
	require.NoError(t, api.Get(context.Background(), "/ping", nil, nil))
	assert.False(t, tenantPresent)
}

func TestCustomHeadersMerged(t *testing.T) {
	var gotAccept, gotCustom string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotCustom = r.Header.Get("X-Client-Screen")
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	api := newTestClient(t, srv.URL, session.NewMemoryStore())
	headers := http.Header{}
	headers.Set("X-Client-Screen", "triage-board")

	require.NoError(t, api.Do(context.Background(), http.MethodGet, "/ping", nil, nil, headers, nil))
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "triage-board", gotCustom)
}

func TestValidationErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": []map[string]interface{}{
				{"msg": "too short", "loc": []string{"body", "password"}},
			},
		})
	}))
	defer srv.Close()

	api := newTestClient(t, srv.URL, session.NewMemoryStore())

	err := api.Post(context.Background(), "/auth/register", map[string]string{"password": "x"}, nil)
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "password: too short", apiErr.Message)
}

func TestFieldErrorsExposed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "validation failed",
			"errors":  map[string][]string{"mrn": {"already taken"}},
		})
	}))
	defer srv.Close()

	api := newTestClient(t, srv.URL, session.NewMemoryStore())

	err := api.Post(context.Background(), "/patients", map[string]string{}, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "validation failed", apiErr.Message)
	assert.Equal(t, []string{"already taken"}, apiErr.Fields["mrn"])
}

// Transport failures are not normalized into APIError.
func TestNetworkErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	api := newTestClient(t, srv.URL, session.NewMemoryStore())

	err := api.Get(context.Background(), "/patients", nil, nil)
	require.Error(t, err)

	var apiErr *client.APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.NotErrorIs(t, err, client.ErrSessionExpired)
}

func TestNoContentResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	api := newTestClient(t, srv.URL, session.NewMemoryStore())
	require.NoError(t, api.Delete(context.Background(), "/appointments/apt-1", nil))
}
