package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisur/hmis-go/internal/util"
)

// The alert is sent after the handler that spotted the IP change has already
// returned, so a canceled request context must not abort the delivery.
func TestNotifierOutlivesRequestContext(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&data))
		received <- data
	}))
	defer srv.Close()

	n := NewNotifier(util.NewNopLogger(), srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.NotifySessionIPChange(ctx, map[string]interface{}{
		"selector": "sel-1",
		"old_ip":   "10.0.0.1",
		"new_ip":   "10.0.0.2",
	})

	select {
	case data := <-received:
		assert.Equal(t, "sel-1", data["selector"])
		assert.Equal(t, "10.0.0.2", data["new_ip"])
	case <-time.After(2 * time.Second):
		t.Fatal("session alert was not delivered")
	}
}

func TestNotifierNoopWithoutURL(t *testing.T) {
	n := NewNotifier(util.NewNopLogger(), "")
	n.NotifySessionIPChange(context.Background(), map[string]interface{}{"selector": "sel-1"})
}
