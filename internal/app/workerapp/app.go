package workerapp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/config"
	"github.com/dogepandaCodes/PokinPokin/internal/jobs/auditretry"
	pgrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/postgres"
	redrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/redis"
)

const jobTimeout = 30 * time.Second

// App runs scheduled maintenance jobs. It needs both Postgres and Redis.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	cron       *cron.Cron
	auditRetry *auditretry.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for worker app: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init redis for worker app: %w", err)
	}

	job := auditretry.New(
		redrepo.NewAuditQueueRepo(redisClient),
		pgrepo.NewPurchaseRepo(pool),
		cfg.Audit.RetryBatchSize,
		cfg.Audit.RetryMaxAttempts,
		logger,
	)

	app := &App{
		cfg:        cfg,
		logger:     logger,
		postgres:   pool,
		redis:      redisClient,
		auditRetry: job,
	}
	app.cron = newScheduler(logger)
	if _, err := app.cron.AddFunc(cfg.Audit.RetrySchedule, app.runAuditRetry); err != nil {
		app.close()
		return nil, fmt.Errorf("schedule audit retry %q: %w", cfg.Audit.RetrySchedule, err)
	}

	return app, nil
}

// Run drains the queue once, then follows the schedule until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.runAuditRetry()
	a.cron.Start()
	a.logger.Info("worker started", zap.String("audit_retry_schedule", a.cfg.Audit.RetrySchedule))

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	stopped := a.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		a.logger.Warn("worker shutdown timed out waiting for running jobs")
	}
	a.close()
	return nil
}

func (a *App) runAuditRetry() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := a.auditRetry.Run(ctx); err != nil {
		a.logger.Error("audit retry run failed", zap.Error(err))
	}
}

func (a *App) close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
