package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/config"
	"github.com/dogepandaCodes/PokinPokin/internal/infra/httpclient"
	"github.com/dogepandaCodes/PokinPokin/internal/infra/rabbitmq"
	s3infra "github.com/dogepandaCodes/PokinPokin/internal/infra/s3"
	stripeinfra "github.com/dogepandaCodes/PokinPokin/internal/infra/stripe"
	pgrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/postgres"
	redrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/redis"
	authsvc "github.com/dogepandaCodes/PokinPokin/internal/services/auth"
	"github.com/dogepandaCodes/PokinPokin/internal/services/catalog"
	checkoutsvc "github.com/dogepandaCodes/PokinPokin/internal/services/checkout"
	"github.com/dogepandaCodes/PokinPokin/internal/services/eventarchive"
	ratesvc "github.com/dogepandaCodes/PokinPokin/internal/services/rate"
	settlementsvc "github.com/dogepandaCodes/PokinPokin/internal/services/settlement"
	verifysvc "github.com/dogepandaCodes/PokinPokin/internal/services/verification"
)

const redisPingTimeout = 2 * time.Second

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	publisher  rabbitmq.Publisher
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	packages, err := catalog.FromConfig(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	stripeClient, err := stripeinfra.NewClient(stripeinfra.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		HTTPClient:    httpclient.New(cfg.Stripe.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("init stripe: %w", err)
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, allowedOrigins(cfg.Frontend.URL))

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	redisReady := pingRedis(ctx, redisClient, log)

	settlementRepo := pgrepo.NewSettlementRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)

	checkoutService := checkoutsvc.NewService(packages, stripeClient, checkoutsvc.Config{
		FrontendURL:        cfg.Frontend.URL,
		Currency:           cfg.Stripe.Currency,
		PaymentMethodTypes: cfg.Stripe.PaymentMethodTypes,
	}, log)
	settlementService := settlementsvc.NewService(settlementsvc.Dependencies{
		Balances: settlementRepo,
		Audits:   purchaseRepo,
		Logger:   log,
	})
	verificationService := verifysvc.NewService(stripeClient, log)

	if redisReady {
		checkoutService.AttachRateLimiter(ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), cfg.Checkout.RatePerMinute))
		settlementService.AttachAuditQueue(redrepo.NewAuditQueueRepo(redisClient))
		verificationService.AttachCache(redrepo.NewVerifyCacheRepo(redisClient), cfg.Verify.CacheTTL)
	}

	publisher := newPublisher(cfg.RabbitMQ, log)
	settlementService.AttachPublisher(publisher)

	RegisterRoutes(r, Dependencies{
		Catalog:             packages,
		CheckoutService:     checkoutService,
		SettlementService:   settlementService,
		VerificationService: verificationService,
		EventVerifier:       stripeClient,
		EventArchive:        newEventArchive(cfg.S3, log),
		PurchaseRepo:        purchaseRepo,
		TokenVerifier:       authsvc.NewVerifier(cfg.Auth.JWTSecret),
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		publisher:  publisher,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

func allowedOrigins(frontendURL string) []string {
	origin := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if origin == "" {
		return nil
	}
	return []string{origin}
}

func pingRedis(ctx context.Context, client *goredis.Client, log *zap.Logger) bool {
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis init failed, continuing without rate limit, verify cache and audit retry queue", zap.Error(err))
		return false
	}
	return true
}

func newPublisher(cfg config.RabbitMQConfig, log *zap.Logger) rabbitmq.Publisher {
	if strings.TrimSpace(cfg.URL) == "" {
		return rabbitmq.NewFallback(log)
	}
	producer, err := rabbitmq.NewProducer(cfg.URL, cfg.Exchange, log)
	if err != nil {
		log.Warn("rabbitmq init failed, continuing in degraded mode", zap.Error(err))
		return rabbitmq.NewFallback(log)
	}
	return producer
}

func newEventArchive(cfg config.S3Config, log *zap.Logger) *eventarchive.Archive {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil
	}
	client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
		return nil
	}
	return eventarchive.New(s3infra.NewBucket(client, cfg.Bucket), "webhooks")
}
