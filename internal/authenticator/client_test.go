package authenticator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agent(t *testing.T, hardware, enrolled, success bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/capability", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"has_hardware": hardware, "enrolled": enrolled})
	})
	mux.HandleFunc("/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Prompt == "" {
			http.Error(w, "prompt required", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": success})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgentRoundTrip(t *testing.T) {
	srv := agent(t, true, false, true)
	c := NewClient(srv.URL, false)
	ctx := context.Background()

	hw, err := c.HasCapability(ctx)
	require.NoError(t, err)
	assert.True(t, hw)

	enrolled, err := c.IsEnrolled(ctx)
	require.NoError(t, err)
	assert.False(t, enrolled)

	res, err := c.Authenticate(ctx, "Authenticate")
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.NoError(t, c.Health(ctx))
}

func TestClientAgentErrorStatus(t *testing.T) {
	srv := agent(t, true, true, true)
	c := NewClient(srv.URL, false)
	_, err := c.Authenticate(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", false)
	_, err := c.HasCapability(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.Health(context.Background()))
}

func TestClientSkip(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", true)
	ctx := context.Background()
	hw, err := c.HasCapability(ctx)
	require.NoError(t, err)
	assert.True(t, hw)
	res, err := c.Authenticate(ctx, "x")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NoError(t, c.Health(ctx))
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	res, err := Approve().Authenticate(ctx, "p")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, _ = Static{Hardware: true, Enrolled: false, Success: true}.Authenticate(ctx, "p")
	assert.False(t, res.Success)

	var _ Authenticator = Static{}
	var _ Authenticator = (*Client)(nil)
}
