package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railguard-ai/railguard/internal/guardrail"
)

func newVerdictServer(t *testing.T, verdict remoteVerdict, wantAuth string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Texts)
		assert.NotEmpty(t, req.Direction)
		if wantAuth != "" {
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(verdict))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteFlagged(t *testing.T) {
	srv := newVerdictServer(t, remoteVerdict{
		Flagged:    true,
		Reason:     "hate speech",
		Categories: []string{"hate", "harassment"},
	}, "Bearer test-key")

	g, err := NewRemote(RemoteConfig{Name: "vendor", Endpoint: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	result := g.PreCall(context.Background(), requestWith("nasty content"))
	assert.True(t, result.IsBlocked())
	assert.Contains(t, result.Reason, "hate speech")
	assert.Contains(t, result.Reason, "categories")
	assert.Len(t, result.Details, 2)
}

func TestRemoteClean(t *testing.T) {
	srv := newVerdictServer(t, remoteVerdict{Flagged: false}, "")

	g, err := NewRemote(RemoteConfig{Endpoint: srv.URL})
	require.NoError(t, err)

	result := g.PreCall(context.Background(), requestWith("hello"))
	assert.True(t, result.IsPass())
}

func TestRemoteServerErrorIsErroredOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	g, err := NewRemote(RemoteConfig{Endpoint: srv.URL})
	require.NoError(t, err)

	result := g.PreCall(context.Background(), requestWith("hello"))
	assert.Equal(t, guardrail.OutcomeErrored, result.Outcome)
	assert.Contains(t, result.Detail(), "status 500")
}

func TestRemoteUnreachableIsErroredOutcome(t *testing.T) {
	g, err := NewRemote(RemoteConfig{Endpoint: "http://127.0.0.1:1/moderate"})
	require.NoError(t, err)

	result := g.PreCall(context.Background(), requestWith("hello"))
	assert.Equal(t, guardrail.OutcomeErrored, result.Outcome)
}

func TestRemoteRequiresEndpoint(t *testing.T) {
	_, err := NewRemote(RemoteConfig{})
	assert.Error(t, err)
}
