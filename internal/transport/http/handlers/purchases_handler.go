package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	authsvc "github.com/dogepandaCodes/PokinPokin/internal/services/auth"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
	httperrors "github.com/dogepandaCodes/PokinPokin/internal/transport/http/errors"
)

type PurchaseLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error)
}

// PurchasesHandler lists the caller's own purchase history.
type PurchasesHandler struct {
	purchases PurchaseLister
	logger    *zap.Logger
}

func NewPurchasesHandler(purchases PurchaseLister, logger *zap.Logger) *PurchasesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchasesHandler{purchases: purchases, logger: logger}
}

func (h *PurchasesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.purchases == nil {
		writeInternal(w, "PURCHASES_UNAVAILABLE", "purchase history is unavailable")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid limit")
			return
		}
		limit = v
	}

	records, err := h.purchases.ListByUser(r.Context(), identity.UserID, limit)
	if err != nil {
		h.logger.Error("list purchases failed", zap.String("user_id", identity.UserID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to load purchases")
		return
	}

	out := dto.PurchasesResponse{Purchases: make([]dto.PurchaseItem, 0, len(records))}
	for _, rec := range records {
		out.Purchases = append(out.Purchases, dto.PurchaseItem{
			ID:             rec.ID,
			SessionID:      rec.SessionID,
			PurchaseTime:   rec.PurchaseTime,
			TokenAmount:    rec.TokenAmount,
			PurchaseAmount: rec.PurchaseAmount,
		})
	}
	httperrors.Write(w, http.StatusOK, out)
}
