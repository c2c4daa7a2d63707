package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juddisjudd/paxdeiclans/api/handlers"
	"github.com/juddisjudd/paxdeiclans/models"
)

type stubSyncer struct {
	summary models.SyncSummary
	err     error
	runs    int
}

func (s *stubSyncer) Run(ctx context.Context) (models.SyncSummary, error) {
	s.runs++
	return s.summary, s.err
}

func cronRequest(auth string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/cron/discord-updates", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestDiscordUpdatesHandler(t *testing.T) {
	sync := &stubSyncer{summary: models.SyncSummary{Total: 3, Updated: 1, Skipped: 1, Failed: 1, Timestamp: fixedNow}}
	rr := httptest.NewRecorder()
	handlers.Cron{Sync: sync, Secret: "s3cret"}.DiscordUpdatesHandler(rr, cronRequest("Bearer s3cret"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.SyncResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Failed)
	assert.Equal(t, 1, sync.runs)
}

func TestDiscordUpdatesHandlerUnauthorized(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		auth   string
	}{
		{"missing header", "s3cret", ""},
		{"wrong secret", "s3cret", "Bearer nope"},
		{"wrong scheme", "s3cret", "Basic s3cret"},
		{"no secret configured", "", "Bearer "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sync := &stubSyncer{}
			rr := httptest.NewRecorder()
			handlers.Cron{Sync: sync, Secret: tc.secret}.DiscordUpdatesHandler(rr, cronRequest(tc.auth))

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, 0, sync.runs)
		})
	}
}

func TestDiscordUpdatesHandlerRunFails(t *testing.T) {
	sync := &stubSyncer{err: errors.New("failed to load clans")}
	rr := httptest.NewRecorder()
	handlers.Cron{Sync: sync, Secret: "s3cret"}.DiscordUpdatesHandler(rr, cronRequest("Bearer s3cret"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, models.ReasonInternal, decodeError(t, rr).Reason)
}
