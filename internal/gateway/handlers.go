package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/models"
	"github.com/medisur/hmis-go/internal/storage"
	"github.com/medisur/hmis-go/internal/util"
)

// handleLogin forwards the credentials to the backend and, on success,
// swaps the returned token pair for an opaque HttpOnly cookie. Tokens never
// reach the browser.
func (g *Gateway) handleLogin(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid request body")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}

	resp, err := g.backendDo(c.Request().Context(), http.MethodPost, "/auth/login", payload, "")
	if err != nil {
		return util.NewResponseError(http.StatusBadGateway, "backend unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return relayResponse(c, resp)
	}

	var loginRes models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginRes); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}

	token, selector, verifierHash, err := NewSessionToken()
	if err != nil {
		return fmt.Errorf("mint session token: %w", err)
	}

	tenant := loginRes.TenantID
	if tenant == "" {
		tenant = util.DefaultTenant
	}

	now := time.Now().UTC()
	session := models.GatewaySession{
		Selector:     selector,
		VerifierHash: verifierHash,
		AccessToken:  loginRes.AccessToken,
		RefreshToken: loginRes.RefreshToken,
		TenantID:     tenant,
		UserAgent:    c.Request().UserAgent(),
		IPAddress:    c.RealIP(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(g.cfg.CookieTTL),
	}
	if _, err := g.sessions.CreateSession(c.Request().Context(), session); err != nil {
		return fmt.Errorf("store gateway session: %w", err)
	}

	g.setSessionCookie(c, token, session.ExpiresAt)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenant_id": tenant,
		"user":      loginRes.User,
	})
}

// handleRefresh rotates the backend pair for the calling session without
// waiting for a proxied 401 to force it.
func (g *Gateway) handleRefresh(c echo.Context) error {
	session, err := g.resolveSession(c)
	if err != nil {
		return g.terminateSession(c, "", err)
	}

	if err := g.refreshBackendSession(c.Request().Context(), session); err != nil {
		return g.terminateSession(c, session.Selector, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (g *Gateway) handleLogout(c echo.Context) error {
	session, err := g.resolveSession(c)
	if err == nil {
		ctx := c.Request().Context()
		if err := g.sessions.DeleteSession(ctx, session.Selector); err != nil {
			g.log.Errorw("failed to delete session on logout", "error", err)
		}
		if err := g.revocations.RevokeSession(ctx, session.Selector, time.Until(session.ExpiresAt)); err != nil {
			g.log.Errorw("failed to revoke session on logout", "error", err)
		}
	}

	g.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// resolveSession turns the request cookie into a live session row.
func (g *Gateway) resolveSession(c echo.Context) (*models.GatewaySession, error) {
	cookie, err := c.Cookie(g.cfg.CookieName)
	if err != nil {
		return nil, fmt.Errorf("no session cookie: %w", err)
	}

	selector, err := SplitSessionToken(cookie.Value)
	if err != nil {
		return nil, err
	}

	ctx := c.Request().Context()
	revoked, err := g.revocations.IsSessionRevoked(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrCookieInvalid
	}

	session, err := g.sessions.FindBySelector(ctx, selector)
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, storage.ErrSessionNotFound
	}
	if err := ValidateSessionToken(cookie.Value, session.VerifierHash); err != nil {
		return nil, err
	}

	if session.IPAddress != "" && session.IPAddress != c.RealIP() {
		g.notifier.NotifySessionIPChange(ctx, map[string]interface{}{
			"selector":   session.Selector,
			"old_ip":     session.IPAddress,
			"new_ip":     c.RealIP(),
			"user_agent": c.Request().UserAgent(),
		})
	}

	return session, nil
}

// terminateSession is the hard-failure path: the session row and cookie are
// destroyed and the browser is sent back to the login entry point. API
// callers get a 401 instead of a redirect.
func (g *Gateway) terminateSession(c echo.Context, selector string, cause error) error {
	ctx := c.Request().Context()
	if selector != "" {
		if err := g.sessions.DeleteSession(ctx, selector); err != nil {
			g.log.Errorw("failed to delete terminated session", "error", err)
		}
		if err := g.revocations.RevokeSession(ctx, selector, g.cfg.CookieTTL); err != nil {
			g.log.Errorw("failed to revoke terminated session", "error", err)
		}
	}
	g.clearSessionCookie(c)
	g.log.Infow("session terminated", "cause", cause)

	if wantsJSON(c.Request()) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"reason": "session expired"})
	}
	return c.Redirect(http.StatusFound, "/auth/login")
}

func (g *Gateway) setSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   g.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Gateway) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// backendDo issues a JSON request to the backend API on the gateway's own
// behalf (login and refresh calls).
func (g *Gateway) backendDo(ctx context.Context, method, path string, payload []byte, bearer string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BackendBaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(client.HeaderRequestID, uuid.NewString())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return g.backend.Do(req)
}

func relayResponse(c echo.Context, resp *http.Response) error {
	for _, header := range []string{"Content-Type", "Cache-Control", "X-Total-Count"} {
		if v := resp.Header.Get(header); v != "" {
			c.Response().Header().Set(header, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)
	_, err := io.Copy(c.Response(), resp.Body)
	return err
}

func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "application/json")
}
