package incidents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientOptions{APIKey: "key123", Email: "ops@example.com", BaseURL: srv.URL})
	require.NoError(t, err)

	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(ClientOptions{Email: "ops@example.com"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewClient(ClientOptions{APIKey: "key"})
	assert.ErrorIs(t, err, ErrMissingEmail)
}

func TestListIncidents_SendsHeadersAndWindow(t *testing.T) {
	since := time.Date(2022, 8, 22, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/incidents", r.URL.Path)
		assert.Equal(t, "Token token=key123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.pagerduty+json;version=2", r.Header.Get("Accept"))
		assert.Equal(t, "ops@example.com", r.Header.Get("From"))

		q := r.URL.Query()
		assert.Equal(t, "2022-08-22T00:00:00Z", q.Get("since"))
		assert.Equal(t, "2022-08-23T00:00:00Z", q.Get("until"))
		assert.Equal(t, "0", q.Get("offset"))
		assert.Equal(t, "100", q.Get("limit"))

		writeJSON(t, w, map[string]any{
			"incidents": []map[string]any{{"id": "P1", "status": "triggered"}},
			"more":      false,
		})
	})

	list, err := c.ListIncidents(context.Background(), since, until)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "P1", list[0].ID)
}

func TestListIncidents_FollowsPagination(t *testing.T) {
	var offsets []string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		n, err := strconv.Atoi(offset)
		require.NoError(t, err)

		page := []map[string]any{{"id": "P" + strconv.Itoa(n)}, {"id": "P" + strconv.Itoa(n+1)}}
		writeJSON(t, w, map[string]any{"incidents": page, "more": n < 4})
	})

	list, err := c.ListIncidents(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "2", "4"}, offsets)
	require.Len(t, list, 6)
	assert.Equal(t, "P5", list[5].ID)
}

func TestListIncidents_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Authentication failed","code":2006}}`))
	})

	_, err := c.ListIncidents(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Authentication failed", apiErr.Message)
	assert.Contains(t, err.Error(), "401")
}

func TestListIncidents_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.ListIncidents(context.Background(), time.Now().Add(-time.Hour), time.Now())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message)
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestListIncidents_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.ListIncidents(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode incidents page")
}

func TestListIncidents_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"incidents": []any{}, "more": false})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListIncidents(ctx, time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
