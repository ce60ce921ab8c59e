package payout

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *fakePayoutStore) {
	t.Helper()
	s := newFakePayoutStore()
	seedFundedAccount(s)
	svc := newTestService(t, s, true)
	return NewHandler(svc, svc.log), s
}

// TestHandleRequest_Authorized returns the decision JSON for an approvable
// request.
func TestHandleRequest_Authorized(t *testing.T) {
	h, s := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/payouts/request",
		strings.NewReader(`{"account_id":"acct-1","amount":100}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authorized":true`)
	assert.Len(t, s.inserted, 1)
}

// TestHandleRequest_DeniedCarriesReason returns 200 with the denial reason;
// a denial is a valid decision, not an HTTP error.
func TestHandleRequest_DeniedCarriesReason(t *testing.T) {
	h, s := newTestHandler(t)
	s.accounts["acct-1"].CurrentBalance = 5000
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/payouts/request",
		strings.NewReader(`{"account_id":"acct-1","amount":100}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authorized":false`)
	assert.Contains(t, rec.Body.String(), ReasonNoProfit)
}

// TestHandleRequest_BadInput rejects malformed bodies and missing fields.
func TestHandleRequest_BadInput(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	for _, body := range []string{`not json`, `{"amount":100}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/payouts/request", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

// TestHandleRequest_MethodNotAllowed rejects GETs on the request endpoint.
func TestHandleRequest_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/payouts/request", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// TestHandleBalance_ReturnsSummary serves the aggregated headroom.
func TestHandleBalance_ReturnsSummary(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/payouts/balance", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":800`)
	assert.Contains(t, rec.Body.String(), `"accounts"`)
}
