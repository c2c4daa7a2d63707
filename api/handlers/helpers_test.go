package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/juddisjudd/paxdeiclans/api"
	"github.com/juddisjudd/paxdeiclans/databases/mocks"
	"github.com/juddisjudd/paxdeiclans/discord"
	"github.com/juddisjudd/paxdeiclans/models"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type stubVerifier struct {
	info  discord.InviteInfo
	err   error
	calls []string
}

func (s *stubVerifier) Verify(_ context.Context, url string) (discord.InviteInfo, error) {
	s.calls = append(s.calls, url)
	return s.info, s.err
}

func withUser(req *http.Request, id string) *http.Request {
	return req.WithContext(api.WithUser(req.Context(), api.CurrentUser{ID: id, Name: "tester"}))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.MessageError {
	t.Helper()
	var resp models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Error
}

// singleResult returns a SingleResultHelper mock that decodes doc into the target
func singleResult[T any](doc T) *mocks.SingleResultHelper {
	s := &mocks.SingleResultHelper{}
	s.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		*args.Get(0).(*T) = doc
	})
	return s
}

func singleError(err error) *mocks.SingleResultHelper {
	s := &mocks.SingleResultHelper{}
	s.On("Decode", mock.Anything).Return(err)
	return s
}
