package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/medisur/hmis-go/internal/models"
)

// refresh exchanges the refresh credential for a new pair. Concurrent
// callers are collapsed onto a single in-flight refresh: rotating backends
// invalidate the old refresh credential on use, so two simultaneous refresh
// calls would strand one of them. The memo clears when the call settles,
// success or failure, so a failed refresh cannot wedge the client.
func (c *Client) refresh(ctx context.Context) error {
	if c.variant == VariantBearer {
		if _, refreshToken := c.store.Credentials(); refreshToken == "" {
			return errNoRefreshCredential
		}
	}

	_, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	var payload []byte
	if c.variant == VariantBearer {
		_, refreshToken := c.store.Credentials()
		var err error
		payload, err = json.Marshal(models.TokenRefreshRequest{RefreshToken: refreshToken})
		if err != nil {
			return fmt.Errorf("encode refresh request: %w", err)
		}
	}
	// The cookie variant sends no body; the jar carries the credential and
	// the server rotates it via response cookies.

	resp, err := c.send(ctx, http.MethodPost, c.baseURL+refreshEndpoint, payload, nil)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("refresh session: status %d", resp.StatusCode)
	}

	if c.variant == VariantCookie {
		return nil
	}

	var pair models.TokenPairResponse
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if pair.AccessToken == "" {
		return fmt.Errorf("refresh session: empty access token in response")
	}
	if err := c.store.SetCredentials(pair.AccessToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("persist rotated credentials: %w", err)
	}

	c.log.Debugw("session refreshed")
	return nil
}
