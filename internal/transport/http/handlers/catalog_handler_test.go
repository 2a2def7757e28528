package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	authsvc "github.com/dogepandaCodes/PokinPokin/internal/services/auth"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
)

type purchaseListerStub struct {
	userID string
	limit  int
}

func (s *purchaseListerStub) ListByUser(_ context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	s.userID = userID
	s.limit = limit
	return []model.PurchaseRecord{{
		ID:             "p1",
		UserID:         userID,
		SessionID:      "cs_1",
		PurchaseTime:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TokenAmount:    22,
		PurchaseAmount: 20,
	}}, nil
}

func TestPackagesListsCatalogInOrder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewCatalogHandler(newTestCatalog(t)).List(rr, httptest.NewRequest(http.MethodGet, "/packages", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp dto.PackagesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Packages) != 4 {
		t.Fatalf("expected 4 packages, got %d", len(resp.Packages))
	}
	ultimate := resp.Packages[3]
	if ultimate.ID != "ultimate" || ultimate.TotalCoins != 130 || ultimate.Price != 10000 {
		t.Fatalf("unexpected package: %+v", ultimate)
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "{\"status\":\"ok\"}\n" {
		t.Fatalf("unexpected health response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestPurchasesRequiresIdentityAndScopesToCaller(t *testing.T) {
	lister := &purchaseListerStub{}
	h := NewPurchasesHandler(lister, nil)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/purchases", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/purchases?limit=5", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: "u1"}))
	rr = httptest.NewRecorder()
	h.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if lister.userID != "u1" || lister.limit != 5 {
		t.Fatalf("unexpected lister call: %+v", lister)
	}

	var resp dto.PurchasesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Purchases) != 1 || resp.Purchases[0].TokenAmount != 22 {
		t.Fatalf("unexpected purchases: %+v", resp.Purchases)
	}
}
