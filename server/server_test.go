package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket_content_improver/improver"
)

type fakeImprover struct {
	got improver.Input
	res improver.Result
	err error
}

func (f *fakeImprover) Improve(_ context.Context, in improver.Input) (improver.Result, error) {
	f.got = in
	return f.res, f.err
}

func newTestServer(t *testing.T, f *fakeImprover) http.Handler {
	t.Helper()
	srv, err := New(f, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv.Routes()
}

func TestNewRequiresImprover(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestHandleImprove(t *testing.T) {
	f := &fakeImprover{res: improver.Result{
		Description:        "<p>better</p>",
		AcceptanceCriteria: []improver.Criterion{{Text: "works"}},
	}}
	h := newTestServer(t, f)

	body := `{"title":"T","description":{"content":"<p>x</p>"},"acceptanceCriteria":[{"text":"a"}],"attachments":[{"url":"/files/a.png","type":"image/png","name":"a.png"}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tickets/improve", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"description":"<p>better</p>","acceptanceCriteria":[{"text":"works","completed":false}]}`, rec.Body.String())
	assert.Equal(t, "T", f.got.Title)
	assert.Equal(t, "<p>x</p>", f.got.Description.Markup())
	require.Len(t, f.got.Attachments, 1)
	assert.Equal(t, "image/png", f.got.Attachments[0].Type)
}

func TestHandleImproveErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		retryable  bool
		retryAfter bool
	}{
		{"timeout", improver.TimeoutError(0, context.DeadlineExceeded), http.StatusGatewayTimeout, true, true},
		{"upstream retryable", improver.UpstreamError(500, nil), http.StatusServiceUnavailable, true, true},
		{"upstream fatal", improver.UpstreamError(401, nil), http.StatusBadGateway, false, false},
		{"invalid response", improver.InvalidResponseError("empty"), http.StatusBadGateway, false, false},
		{"configuration", improver.ConfigurationError("no key"), http.StatusInternalServerError, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeImprover{err: tt.err})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tickets/improve", strings.NewReader(`{"title":"t"}`)))

			assert.Equal(t, tt.status, rec.Code)
			var resp errorResp
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.retryable, resp.Retryable)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After") != "")
		})
	}
}

func TestHandleImproveBadRequest(t *testing.T) {
	h := newTestServer(t, &fakeImprover{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tickets/improve", strings.NewReader(`{"title":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleImproveMethod(t *testing.T) {
	h := newTestServer(t, &fakeImprover{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets/improve", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeImprover{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
