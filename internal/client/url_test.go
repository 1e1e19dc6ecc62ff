package client

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisur/hmis-go/internal/session"
	"github.com/medisur/hmis-go/internal/util"
)

func testClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	cfg := &util.ClientConfig{BaseURL: "http://backend:8000/api/v1", Timeout: time.Second}
	return New(cfg, session.NewMemoryStore(), util.NewNopLogger(), opts...)
}

func TestBuildURLOmitsEmptyValues(t *testing.T) {
	c := testClient(t)

	got := c.BuildURL("/patients", Params{
		"search": nil,
		"q":      "",
		"page":   1,
		"active": false,
	})

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/patients", u.Path)

	q := u.Query()
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "false", q.Get("active"))
	assert.NotContains(t, q, "search")
	assert.NotContains(t, q, "q")
}

func TestBuildURLWithoutParams(t *testing.T) {
	c := testClient(t)
	assert.Equal(t, "http://backend:8000/api/v1/patients/p-1", c.BuildURL("/patients/p-1", nil))
}

func TestQueryValueFormats(t *testing.T) {
	c := testClient(t)

	from := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	got := c.BuildURL("/appointments", Params{
		"from":  from,
		"limit": int64(50),
		"score": 0.5,
	})

	u, err := url.Parse(got)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "2026-03-14T09:30:00Z", q.Get("from"))
	assert.Equal(t, "50", q.Get("limit"))
	assert.Equal(t, "0.5", q.Get("score"))
}

func TestBuildHeadersCookieVariantDefaultsTenant(t *testing.T) {
	c := testClient(t, WithCookieVariant())

	h := c.buildHeaders(nil)
	assert.Equal(t, util.DefaultTenant, h.Get(HeaderTenant))
	assert.Empty(t, h.Get("Authorization"))
	assert.NotEmpty(t, h.Get(HeaderRequestID))
}

func TestBuildHeadersContentTypeOverride(t *testing.T) {
	c := testClient(t)

	extra := http.Header{}
	extra.Set("Content-Type", "multipart/form-data")
	h := c.buildHeaders(extra)
	assert.Equal(t, "multipart/form-data", h.Get("Content-Type"))
	assert.Equal(t, "application/json", h.Get("Accept"))
}
