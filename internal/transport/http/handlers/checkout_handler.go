package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	authsvc "github.com/dogepandaCodes/PokinPokin/internal/services/auth"
	checkoutsvc "github.com/dogepandaCodes/PokinPokin/internal/services/checkout"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
	httperrors "github.com/dogepandaCodes/PokinPokin/internal/transport/http/errors"
)

type CheckoutHandler struct {
	checkout    *checkoutsvc.Service
	requireAuth bool
	logger      *zap.Logger
}

// NewCheckoutHandler builds the session creation endpoint. With requireAuth
// the caller's bearer identity must match the user id in the body.
func NewCheckoutHandler(checkout *checkoutsvc.Service, requireAuth bool, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{
		checkout:    checkout,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.checkout == nil {
		writeInternal(w, "CHECKOUT_SERVICE_UNAVAILABLE", "checkout service is unavailable")
		return
	}

	var req dto.CreateCheckoutSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if h.requireAuth {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
			return
		}
		if identity.UserID != strings.TrimSpace(req.UserID) {
			writeUnauthorized(w, "USER_MISMATCH", "token does not belong to this user")
			return
		}
	}

	result, err := h.checkout.Create(r.Context(), checkoutsvc.CreateInput{
		PackageID: req.PackageID,
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
	})
	if err != nil {
		var rateErr *checkoutsvc.RateLimitError
		switch {
		case errors.Is(err, checkoutsvc.ErrInvalidPackage):
			writeBadRequest(w, "INVALID_PACKAGE", "Invalid package selected")
		case errors.Is(err, checkoutsvc.ErrUnauthenticated):
			writeBadRequest(w, "UNAUTHENTICATED", "User must be logged in")
		case errors.As(err, &rateErr):
			w.Header().Set("Retry-After", strconv.FormatInt(rateErr.RetryAfterSec, 10))
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "RATE_LIMITED",
				Message:       "Too many checkout attempts",
				RetryAfterSec: rateErr.RetryAfterSec,
			})
		default:
			h.logger.Error("create checkout session failed",
				zap.String("package_id", req.PackageID),
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			writeInternal(w, "SESSION_CREATION_FAILED", "Failed to create checkout session")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CreateCheckoutSessionResponse{
		URL:       result.URL,
		SessionID: result.SessionID,
	})
}
