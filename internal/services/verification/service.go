package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/enums"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	redisrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/redis"
	"github.com/dogepandaCodes/PokinPokin/internal/services/settlement"
)

var (
	ErrVerificationFailed = errors.New("failed to verify payment")
	ErrMissingSessionID   = errors.New("session id is required")
)

type SessionRetriever interface {
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (model.CheckoutSession, error)
}

type ResultCache interface {
	Get(ctx context.Context, sessionID string) (redisrepo.VerifiedSession, bool, error)
	Set(ctx context.Context, sessionID string, value redisrepo.VerifiedSession, ttl time.Duration) error
}

type Service struct {
	processor SessionRetriever
	cache     ResultCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

type Result struct {
	Success   bool
	PackageID string
	Coins     int
}

func NewService(processor SessionRetriever, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{processor: processor, logger: logger}
}

// AttachCache enables caching of paid results. Paid is terminal, so a cached
// answer never goes stale.
func (s *Service) AttachCache(cache ResultCache, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

// Verify reports whether the processor considers the session paid. It never
// mutates the balance.
func (s *Service) Verify(ctx context.Context, sessionID string) (Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Result{}, ErrMissingSessionID
	}
	if s.processor == nil {
		return Result{}, fmt.Errorf("session retriever is nil")
	}

	if cached, ok := s.lookupCache(ctx, sessionID); ok {
		return cached, nil
	}

	session, err := s.processor.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if session.PaymentStatus != enums.PaymentStatusPaid {
		return Result{Success: false}, nil
	}

	out := Result{
		Success:   true,
		PackageID: strings.TrimSpace(session.Metadata[enums.MetadataPackageID]),
		Coins: settlement.MetadataInt(session.Metadata, enums.MetadataCoins) +
			settlement.MetadataInt(session.Metadata, enums.MetadataBonus),
	}
	s.storeCache(ctx, sessionID, out)
	return out, nil
}

func (s *Service) lookupCache(ctx context.Context, sessionID string) (Result, bool) {
	if s.cache == nil {
		return Result{}, false
	}
	cached, ok, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("verify cache read failed", zap.String("session_id", sessionID), zap.Error(err))
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	return Result{Success: true, PackageID: cached.PackageID, Coins: cached.Coins}, true
}

func (s *Service) storeCache(ctx context.Context, sessionID string, res Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, sessionID, redisrepo.VerifiedSession{
		PackageID: res.PackageID,
		Coins:     res.Coins,
	}, s.cacheTTL); err != nil {
		s.logger.Warn("verify cache write failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
