package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	verifysvc "github.com/dogepandaCodes/PokinPokin/internal/services/verification"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
	httperrors "github.com/dogepandaCodes/PokinPokin/internal/transport/http/errors"
)

type VerifyHandler struct {
	verification *verifysvc.Service
	logger       *zap.Logger
}

func NewVerifyHandler(verification *verifysvc.Service, logger *zap.Logger) *VerifyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerifyHandler{verification: verification, logger: logger}
}

func (h *VerifyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.verification == nil {
		writeInternal(w, "VERIFICATION_UNAVAILABLE", "verification service is unavailable")
		return
	}

	sessionID := chi.URLParam(r, "sessionId")
	result, err := h.verification.Verify(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, verifysvc.ErrMissingSessionID) {
			writeBadRequest(w, "VALIDATION_ERROR", "session id is required")
			return
		}
		h.logger.Error("verify payment failed", zap.String("session_id", sessionID), zap.Error(err))
		writeInternal(w, "VERIFICATION_FAILED", "Failed to verify payment")
		return
	}

	if !result.Success {
		httperrors.Write(w, http.StatusOK, dto.VerifyPaymentResponse{Success: false})
		return
	}

	coins := result.Coins
	httperrors.Write(w, http.StatusOK, dto.VerifyPaymentResponse{
		Success:   true,
		PackageID: result.PackageID,
		Coins:     &coins,
	})
}
