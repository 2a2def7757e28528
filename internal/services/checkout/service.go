package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/enums"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	"github.com/dogepandaCodes/PokinPokin/internal/pkg/validate"
	"github.com/dogepandaCodes/PokinPokin/internal/services/catalog"
)

// CheckoutSessionPlaceholder is substituted by the processor with the real
// session id on redirect.
const CheckoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

var (
	ErrInvalidPackage        = errors.New("invalid package")
	ErrUnauthenticated       = errors.New("user must be logged in")
	ErrSessionCreationFailed = errors.New("failed to create checkout session")
	ErrRateLimited           = errors.New("too many checkout attempts")
)

type PackageCatalog interface {
	Lookup(id string) (model.Package, error)
}

type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, req model.CheckoutSessionRequest) (model.CheckoutSession, error)
}

type RateLimiter interface {
	AllowCheckout(ctx context.Context, userID string) (int64, bool, error)
}

type Config struct {
	FrontendURL        string
	Currency           string
	PaymentMethodTypes []string
}

type Service struct {
	catalog   PackageCatalog
	processor SessionCreator
	limiter   RateLimiter
	cfg       Config
	logger    *zap.Logger
}

type CreateInput struct {
	PackageID string
	UserID    string
	UserEmail string
}

type CreateResult struct {
	URL       string
	SessionID string
}

// RateLimitError carries the wait time for a rejected checkout attempt.
type RateLimitError struct {
	RetryAfterSec int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrRateLimited, e.RetryAfterSec)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

func NewService(packages PackageCatalog, processor SessionCreator, cfg Config, logger *zap.Logger) *Service {
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "usd"
	}
	if len(cfg.PaymentMethodTypes) == 0 {
		cfg.PaymentMethodTypes = []string{"card"}
	}
	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/")
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		catalog:   packages,
		processor: processor,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *Service) AttachRateLimiter(limiter RateLimiter) {
	s.limiter = limiter
}

func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if s.catalog == nil || s.processor == nil {
		return CreateResult{}, fmt.Errorf("checkout dependencies are not configured")
	}

	pkg, err := s.catalog.Lookup(in.PackageID)
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			return CreateResult{}, ErrInvalidPackage
		}
		return CreateResult{}, err
	}

	userID := strings.TrimSpace(in.UserID)
	email := strings.TrimSpace(in.UserEmail)
	if !validate.Required(userID, email) {
		return CreateResult{}, ErrUnauthenticated
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowCheckout(ctx, userID)
		if err != nil {
			s.logger.Warn("checkout rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return CreateResult{}, &RateLimitError{RetryAfterSec: retryAfter}
		}
	}

	session, err := s.processor.CreateCheckoutSession(ctx, s.BuildSessionRequest(pkg, userID, email))
	if err != nil {
		s.logger.Error("create checkout session",
			zap.String("package_id", pkg.ID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return CreateResult{}, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	s.logger.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("package_id", pkg.ID),
		zap.String("user_id", userID),
	)

	return CreateResult{
		URL:       session.URL,
		SessionID: session.ID,
	}, nil
}

// BuildSessionRequest maps a package and buyer onto the processor request.
// Coin amounts travel in metadata so settlement needs no catalog lookup.
func (s *Service) BuildSessionRequest(pkg model.Package, userID, email string) model.CheckoutSessionRequest {
	return model.CheckoutSessionRequest{
		PaymentMethodTypes: append([]string(nil), s.cfg.PaymentMethodTypes...),
		Mode:               enums.CheckoutModePayment,
		Currency:           s.cfg.Currency,
		LineItems: []model.CheckoutLineItem{
			{
				Name:        pkg.Name,
				Description: describePackage(pkg),
				UnitAmount:  pkg.Price,
				Quantity:    1,
			},
		},
		SuccessURL:    s.cfg.FrontendURL + "/payment-success?session_id=" + CheckoutSessionPlaceholder,
		CancelURL:     s.cfg.FrontendURL + "/#pricing",
		CustomerEmail: email,
		Metadata: map[string]string{
			enums.MetadataUserID:    userID,
			enums.MetadataPackageID: pkg.ID,
			enums.MetadataCoins:     strconv.Itoa(pkg.Coins),
			enums.MetadataBonus:     strconv.Itoa(pkg.Bonus),
		},
	}
}

func describePackage(pkg model.Package) string {
	desc := fmt.Sprintf("%d coins", pkg.Coins)
	if pkg.Bonus > 0 {
		desc += fmt.Sprintf(" + %d bonus coins", pkg.Bonus)
	}
	return desc
}
