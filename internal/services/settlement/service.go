package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/enums"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	pgrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/postgres"
	redisrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/redis"
)

// CoinsCreditedRoutingKey is the routing key of the event published after a
// successful credit.
const CoinsCreditedRoutingKey = "coins.credited"

var (
	ErrMissingUserID       = errors.New("no user id in session metadata")
	ErrMissingSessionID    = errors.New("no checkout session id")
	ErrProfileFetchFailed  = errors.New("failed to fetch user profile")
	ErrBalanceUpdateFailed = errors.New("failed to update coin balance")
	ErrAuditWriteFailed    = errors.New("failed to record purchase")
)

type BalanceStore interface {
	CreditSession(ctx context.Context, in pgrepo.CreditInput) (pgrepo.CreditRecord, error)
}

type AuditStore interface {
	Insert(ctx context.Context, rec model.PurchaseRecord) (model.PurchaseRecord, bool, error)
}

type AuditQueue interface {
	Push(ctx context.Context, item redisrepo.PendingAudit) error
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

type Service struct {
	balances  BalanceStore
	audits    AuditStore
	queue     AuditQueue
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

type Dependencies struct {
	Balances BalanceStore
	Audits   AuditStore
	Logger   *zap.Logger
}

type Input struct {
	EventID string
	Session model.CheckoutSession
}

type Result struct {
	SessionID      string
	UserID         string
	Coins          int
	AmountPaid     float64
	Balance        int
	AlreadySettled bool
	AuditRecorded  bool
}

// CoinsCredited is the payload of the coins.credited event.
type CoinsCredited struct {
	EventID    string    `json:"event_id,omitempty"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	PackageID  string    `json:"package_id,omitempty"`
	Coins      int       `json:"coins"`
	Balance    int       `json:"balance"`
	AmountPaid float64   `json:"amount_paid"`
	CreditedAt time.Time `json:"credited_at"`
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		balances: deps.Balances,
		audits:   deps.Audits,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) AttachAuditQueue(queue AuditQueue) {
	s.queue = queue
}

func (s *Service) AttachPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

// Settle credits the coins of a completed checkout session exactly once.
// Audit and event delivery failures are logged and never returned.
func (s *Service) Settle(ctx context.Context, in Input) (Result, error) {
	if s.balances == nil {
		return Result{}, fmt.Errorf("balance store is nil")
	}

	session := in.Session
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return Result{}, ErrMissingSessionID
	}
	userID := strings.TrimSpace(session.Metadata[enums.MetadataUserID])
	if userID == "" {
		return Result{}, ErrMissingUserID
	}

	coins := MetadataInt(session.Metadata, enums.MetadataCoins) + MetadataInt(session.Metadata, enums.MetadataBonus)
	amountPaid := float64(session.AmountTotal) / 100
	now := s.now().UTC()

	credit, err := s.balances.CreditSession(ctx, pgrepo.CreditInput{
		SessionID:  sessionID,
		UserID:     userID,
		Coins:      coins,
		AmountPaid: amountPaid,
		SettledAt:  now,
	})
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrProfileFetch):
			return Result{}, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
		case errors.Is(err, pgrepo.ErrBalanceUpdate):
			return Result{}, fmt.Errorf("%w: %v", ErrBalanceUpdateFailed, err)
		default:
			return Result{}, fmt.Errorf("credit session: %w", err)
		}
	}

	result := Result{
		SessionID:      sessionID,
		UserID:         userID,
		Coins:          coins,
		AmountPaid:     amountPaid,
		Balance:        credit.Balance,
		AlreadySettled: credit.AlreadySettled,
	}
	if credit.AlreadySettled {
		s.logger.Info("checkout session already settled",
			zap.String("session_id", sessionID),
			zap.String("event_id", in.EventID),
		)
		return result, nil
	}

	s.logger.Info("coins credited",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.Int("coins", coins),
		zap.Int("previous_balance", credit.PreviousCoins),
		zap.Int("balance", credit.Balance),
	)

	result.AuditRecorded = s.recordPurchase(ctx, model.PurchaseRecord{
		UserID:         userID,
		SessionID:      sessionID,
		PurchaseTime:   now,
		TokenAmount:    coins,
		PurchaseAmount: amountPaid,
	})

	s.publishCredited(ctx, CoinsCredited{
		EventID:    in.EventID,
		SessionID:  sessionID,
		UserID:     userID,
		PackageID:  strings.TrimSpace(session.Metadata[enums.MetadataPackageID]),
		Coins:      coins,
		Balance:    credit.Balance,
		AmountPaid: amountPaid,
		CreditedAt: now,
	})

	return result, nil
}

func (s *Service) recordPurchase(ctx context.Context, rec model.PurchaseRecord) bool {
	var err error
	if s.audits == nil {
		err = fmt.Errorf("audit store is nil")
	} else {
		_, _, err = s.audits.Insert(ctx, rec)
	}
	if err == nil {
		return true
	}

	err = fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	s.logger.Warn("purchase audit failed, coins were credited",
		zap.String("session_id", rec.SessionID),
		zap.String("user_id", rec.UserID),
		zap.Error(err),
	)

	if s.queue == nil {
		return false
	}
	if qErr := s.queue.Push(ctx, redisrepo.PendingAudit{
		Record:   rec,
		Attempts: 1,
		LastErr:  err.Error(),
	}); qErr != nil {
		s.logger.Error("queue purchase audit retry failed",
			zap.String("session_id", rec.SessionID),
			zap.Error(qErr),
		)
	}
	return false
}

func (s *Service) publishCredited(ctx context.Context, evt CoinsCredited) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, CoinsCreditedRoutingKey, evt); err != nil {
		s.logger.Warn("publish coins credited failed",
			zap.String("session_id", evt.SessionID),
			zap.Error(err),
		)
	}
}

// MetadataInt reads a non-negative integer from session metadata. Absent,
// unparsable and negative values read as zero.
func MetadataInt(metadata map[string]string, key string) int {
	raw := strings.TrimSpace(metadata[key])
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
