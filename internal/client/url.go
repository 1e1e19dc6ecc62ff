package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/medisur/hmis-go/internal/util"
)

// BuildURL joins the configured base URL with the endpoint path and encodes
// the query parameters. Nil values and empty strings are not sent at all;
// zero and false are legitimate values and are kept.
func (c *Client) BuildURL(endpoint string, params Params) string {
	reqURL := c.baseURL + endpoint

	q := url.Values{}
	for key, value := range params {
		s, ok := queryValue(value)
		if !ok {
			continue
		}
		q.Set(key, s)
	}
	if encoded := q.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}
	return reqURL
}

func queryValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case time.Time:
		return v.Format(time.RFC3339), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// buildHeaders composes the headers for one attempt. Caller-supplied extras
// are merged after the fixed content negotiation pair, so an explicit
// Content-Type override wins. The tenant header follows the variant rules:
// omitted when unset in the bearer variant, defaulted in the cookie variant
// where the gateway expects a tenant scope on every request.
func (c *Client) buildHeaders(extra http.Header) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")

	for key, values := range extra {
		for _, v := range values {
			h.Set(key, v)
		}
	}

	if tenant := c.store.Tenant(); tenant != "" {
		h.Set(HeaderTenant, tenant)
	} else if c.variant == VariantCookie {
		h.Set(HeaderTenant, util.DefaultTenant)
	}

	if c.variant == VariantBearer {
		if access, _ := c.store.Credentials(); access != "" {
			h.Set("Authorization", "Bearer "+access)
		}
	}

	h.Set(HeaderRequestID, uuid.NewString())
	return h
}
