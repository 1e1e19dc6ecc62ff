package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
	"github.com/medisur/hmis-go/internal/util"
)

// handleProxy forwards /api/* to the backend with the session's bearer
// credential and tenant scope attached. A backend 401 triggers one
// deduplicated refresh and one retry; a second 401 terminates the session.
func (g *Gateway) handleProxy(c echo.Context) error {
	session, err := g.resolveSession(c)
	if err != nil {
		return g.terminateSession(c, "", err)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return util.NewResponseError(http.StatusBadRequest, "read request body")
	}

	ctx := c.Request().Context()
	resp, err := g.forward(ctx, c, session, body)
	if err != nil {
		return util.NewResponseError(http.StatusBadGateway, "backend unreachable")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drainBody(resp)

		if err := g.refreshBackendSession(ctx, session); err != nil {
			return g.terminateSession(c, session.Selector, err)
		}

		// Reload the rotated pair before retrying.
		session, err = g.sessions.FindBySelector(ctx, session.Selector)
		if err != nil {
			return g.terminateSession(c, "", err)
		}

		resp, err = g.forward(ctx, c, session, body)
		if err != nil {
			return util.NewResponseError(http.StatusBadGateway, "backend unreachable")
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drainBody(resp)
			return g.terminateSession(c, session.Selector, fmt.Errorf("backend rejected refreshed session"))
		}
	}

	defer resp.Body.Close()
	return relayResponse(c, resp)
}

func (g *Gateway) forward(ctx context.Context, c echo.Context, session *models.GatewaySession, body []byte) (*http.Response, error) {
	path := strings.TrimPrefix(c.Request().URL.Path, "/api")
	target := g.cfg.BackendBaseURL + path
	if rawQuery := c.Request().URL.RawQuery; rawQuery != "" {
		target += "?" + rawQuery
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, c.Request().Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}

	if ct := c.Request().Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set(client.HeaderTenant, session.TenantID)
	req.Header.Set(client.HeaderRequestID, uuid.NewString())
	req.Header.Set("X-Forwarded-For", c.RealIP())

	return g.backend.Do(req)
}

// refreshBackendSession exchanges the stored refresh credential for a new
// pair and persists it. One in-flight refresh per session: the backend
// rotates refresh credentials on use, so concurrent refresh calls for the
// same session would invalidate each other.
func (g *Gateway) refreshBackendSession(ctx context.Context, session *models.GatewaySession) error {
	_, err, _ := g.refreshes.Do(session.Selector, func() (interface{}, error) {
		// A refresh that settled between this caller's 401 and now has
		// already rotated the pair, and the snapshot's refresh token is
		// burnt. Re-read the row and skip the backend call in that case;
		// the caller retries with the rotated credential.
		current, err := g.sessions.FindBySelector(ctx, session.Selector)
		if err != nil {
			return nil, err
		}
		if current.AccessToken != session.AccessToken {
			return nil, nil
		}

		payload, err := json.Marshal(models.TokenRefreshRequest{RefreshToken: current.RefreshToken})
		if err != nil {
			return nil, fmt.Errorf("encode refresh request: %w", err)
		}

		resp, err := g.backendDo(ctx, http.MethodPost, "/auth/refresh", payload, "")
		if err != nil {
			sessionRefreshTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("refresh backend session: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			sessionRefreshTotal.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("refresh backend session: status %d", resp.StatusCode)
		}

		var pair models.TokenPairResponse
		if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}
		if err := g.sessions.RotateTokens(ctx, session.Selector, pair.AccessToken, pair.RefreshToken); err != nil {
			return nil, fmt.Errorf("persist rotated tokens: %w", err)
		}

		sessionRefreshTotal.WithLabelValues("success").Inc()
		return nil, nil
	})
	return err
}

func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
