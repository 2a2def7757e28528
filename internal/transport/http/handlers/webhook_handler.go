package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/enums"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	"github.com/dogepandaCodes/PokinPokin/internal/infra/stripe"
	"github.com/dogepandaCodes/PokinPokin/internal/services/eventarchive"
	settlementsvc "github.com/dogepandaCodes/PokinPokin/internal/services/settlement"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
	httperrors "github.com/dogepandaCodes/PokinPokin/internal/transport/http/errors"
)

const maxWebhookBodyBytes = 65536

type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (model.WebhookEvent, error)
}

type EventArchiver interface {
	Store(ctx context.Context, entry eventarchive.Entry) (string, error)
}

type WebhookHandler struct {
	verifier   EventVerifier
	settlement *settlementsvc.Service
	archive    EventArchiver
	logger     *zap.Logger
}

func NewWebhookHandler(verifier EventVerifier, settlement *settlementsvc.Service, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		verifier:   verifier,
		settlement: settlement,
		logger:     logger,
	}
}

func (h *WebhookHandler) AttachArchive(archive EventArchiver) {
	h.archive = archive
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil || h.settlement == nil {
		writeInternal(w, "SETTLEMENT_UNAVAILABLE", "payment settlement is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "INVALID_BODY", "failed to read request body")
		return
	}

	event, err := h.verifier.VerifyEvent(payload, r.Header.Get(stripe.SignatureHeader))
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			h.logger.Warn("webhook signature verification failed", zap.Error(err))
			writeBadRequest(w, "SIGNATURE_INVALID", "Webhook signature verification failed")
			return
		}
		h.logger.Error("webhook event decode failed", zap.Error(err))
		writeInternal(w, "PROCESSING_FAILED", "Error processing payment")
		return
	}

	h.archiveEvent(r.Context(), event, payload)

	if event.Type != enums.EventCheckoutSessionCompleted {
		httperrors.Write(w, http.StatusOK, dto.WebhookResponse{Received: true})
		return
	}
	if event.Session == nil {
		h.logger.Error("completed event without checkout session", zap.String("event_id", event.ID))
		writeInternal(w, "PROCESSING_FAILED", "Error processing payment")
		return
	}

	result, err := h.settlement.Settle(r.Context(), settlementsvc.Input{
		EventID: event.ID,
		Session: *event.Session,
	})
	if err != nil {
		h.logger.Error("payment settlement failed",
			zap.String("event_id", event.ID),
			zap.String("session_id", event.Session.ID),
			zap.String("reason", settlementReason(err)),
			zap.Error(err),
		)
		writeInternal(w, "PROCESSING_FAILED", "Error processing payment")
		return
	}

	h.logger.Info("payment settled",
		zap.String("event_id", event.ID),
		zap.String("session_id", result.SessionID),
		zap.Int("coins", result.Coins),
		zap.Bool("already_settled", result.AlreadySettled),
		zap.Bool("audit_recorded", result.AuditRecorded),
	)
	httperrors.Write(w, http.StatusOK, dto.WebhookResponse{Received: true})
}

func (h *WebhookHandler) archiveEvent(ctx context.Context, event model.WebhookEvent, payload []byte) {
	if h.archive == nil {
		return
	}
	if _, err := h.archive.Store(ctx, eventarchive.Entry{
		EventID:   event.ID,
		EventType: string(event.Type),
		Payload:   payload,
	}); err != nil {
		h.logger.Warn("webhook archive failed", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func settlementReason(err error) string {
	switch {
	case errors.Is(err, settlementsvc.ErrMissingUserID):
		return "missing_user_id"
	case errors.Is(err, settlementsvc.ErrProfileFetchFailed):
		return "profile_fetch_failed"
	case errors.Is(err, settlementsvc.ErrBalanceUpdateFailed):
		return "balance_update_failed"
	default:
		return "internal"
	}
}
