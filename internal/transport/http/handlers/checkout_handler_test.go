package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dogepandaCodes/PokinPokin/internal/config"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	authsvc "github.com/dogepandaCodes/PokinPokin/internal/services/auth"
	"github.com/dogepandaCodes/PokinPokin/internal/services/catalog"
	checkoutsvc "github.com/dogepandaCodes/PokinPokin/internal/services/checkout"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
	httperrors "github.com/dogepandaCodes/PokinPokin/internal/transport/http/errors"
)

type sessionCreatorStub struct {
	calls int
	last  model.CheckoutSessionRequest
	err   error
}

func (s *sessionCreatorStub) CreateCheckoutSession(_ context.Context, req model.CheckoutSessionRequest) (model.CheckoutSession, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return model.CheckoutSession{}, s.err
	}
	return model.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

type limiterStub struct {
	allowed bool
}

func (l limiterStub) AllowCheckout(context.Context, string) (int64, bool, error) {
	return 30, l.allowed, nil
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.FromConfig(config.Default().Catalog)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func newCheckoutHandler(t *testing.T, processor *sessionCreatorStub, requireAuth bool) (*CheckoutHandler, *checkoutsvc.Service) {
	t.Helper()
	svc := checkoutsvc.NewService(newTestCatalog(t), processor, checkoutsvc.Config{FrontendURL: "http://localhost:5173"}, nil)
	return NewCheckoutHandler(svc, requireAuth, nil), svc
}

func postCheckout(h *CheckoutHandler, body string, identity *authsvc.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		req = req.WithContext(authsvc.WithIdentity(req.Context(), *identity))
	}
	rr := httptest.NewRecorder()
	h.Create(rr, req)
	return rr
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) httperrors.APIError {
	t.Helper()
	var apiErr httperrors.APIError
	if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

func TestCheckoutCreateReturnsRedirect(t *testing.T) {
	processor := &sessionCreatorStub{}
	h, _ := newCheckoutHandler(t, processor, false)

	rr := postCheckout(h, `{"packageId":"popular","userId":"u1","userEmail":"player@example.com"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp dto.CreateCheckoutSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "cs_test_1" || resp.URL != "https://checkout.example/cs_test_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if processor.last.LineItems[0].UnitAmount != 2000 {
		t.Fatalf("unexpected unit amount: %d", processor.last.LineItems[0].UnitAmount)
	}
}

func TestCheckoutCreateErrors(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		processErr error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "unknown package", body: `{"packageId":"mega","userId":"u1","userEmail":"p@example.com"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_PACKAGE", wantMsg: "Invalid package selected"},
		{name: "missing user", body: `{"packageId":"starter","userEmail":"p@example.com"}`, wantStatus: http.StatusBadRequest, wantCode: "UNAUTHENTICATED", wantMsg: "User must be logged in"},
		{name: "unknown field", body: `{"packageId":"starter","admin":true}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantMsg: "invalid request body"},
		{name: "processor failure", body: `{"packageId":"starter","userId":"u1","userEmail":"p@example.com"}`, processErr: errors.New("api down"), wantStatus: http.StatusInternalServerError, wantCode: "SESSION_CREATION_FAILED", wantMsg: "Failed to create checkout session"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newCheckoutHandler(t, &sessionCreatorStub{err: tc.processErr}, false)
			rr := postCheckout(h, tc.body, nil)
			if rr.Code != tc.wantStatus {
				t.Fatalf("unexpected status: got %d want %d", rr.Code, tc.wantStatus)
			}
			apiErr := decodeAPIError(t, rr)
			if apiErr.Code != tc.wantCode || apiErr.Message != tc.wantMsg {
				t.Fatalf("unexpected error body: %+v", apiErr)
			}
		})
	}
}

func TestCheckoutCreateRequiresMatchingIdentity(t *testing.T) {
	processor := &sessionCreatorStub{}
	h, _ := newCheckoutHandler(t, processor, true)
	body := `{"packageId":"starter","userId":"u1","userEmail":"p@example.com"}`

	if rr := postCheckout(h, body, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}
	if rr := postCheckout(h, body, &authsvc.Identity{UserID: "u2"}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign identity, got %d", rr.Code)
	}
	if processor.calls != 0 {
		t.Fatalf("processor must not be called for unauthorized requests")
	}
	if rr := postCheckout(h, body, &authsvc.Identity{UserID: "u1"}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for matching identity, got %d", rr.Code)
	}
}

func TestCheckoutCreateRateLimited(t *testing.T) {
	h, svc := newCheckoutHandler(t, &sessionCreatorStub{}, false)
	svc.AttachRateLimiter(limiterStub{allowed: false})

	rr := postCheckout(h, `{"packageId":"starter","userId":"u1","userEmail":"p@example.com"}`, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") != "30" {
		t.Fatalf("unexpected Retry-After: %q", rr.Header().Get("Retry-After"))
	}
}
