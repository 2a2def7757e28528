package auditretry

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
	redrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/redis"
)

const (
	defaultBatchSize   = 50
	defaultMaxAttempts = 10
)

type Queue interface {
	Push(ctx context.Context, item redrepo.PendingAudit) error
	Pop(ctx context.Context) (redrepo.PendingAudit, bool, error)
}

type PurchaseStore interface {
	Insert(ctx context.Context, rec model.PurchaseRecord) (model.PurchaseRecord, bool, error)
}

type Stats struct {
	Processed int
	Recorded  int
	Requeued  int
	Dropped   int
}

// Job replays purchase audit rows whose insert failed during settlement.
type Job struct {
	queue       Queue
	store       PurchaseStore
	batchSize   int
	maxAttempts int
	logger      *zap.Logger
}

func New(queue Queue, store PurchaseStore, batchSize, maxAttempts int, logger *zap.Logger) *Job {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		queue:       queue,
		store:       store,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (j *Job) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if j.queue == nil || j.store == nil {
		return stats, fmt.Errorf("audit retry dependencies are not configured")
	}

	// Failed entries go back only after the batch so one bad row is not
	// retried several times in the same run.
	var retry []redrepo.PendingAudit
	defer func() {
		for _, item := range retry {
			if err := j.queue.Push(context.WithoutCancel(ctx), item); err != nil {
				j.logger.Error("requeue purchase audit failed",
					zap.String("session_id", item.Record.SessionID),
					zap.Error(err),
				)
			}
		}
	}()

	for stats.Processed < j.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		item, ok, err := j.queue.Pop(ctx)
		if errors.Is(err, redrepo.ErrCorruptAudit) {
			stats.Processed++
			stats.Dropped++
			j.logger.Error("corrupt purchase audit dropped", zap.Error(err))
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("pop pending audit: %w", err)
		}
		if !ok {
			break
		}
		stats.Processed++

		_, inserted, err := j.store.Insert(ctx, item.Record)
		if err == nil {
			stats.Recorded++
			j.logger.Info("purchase audit recorded on retry",
				zap.String("session_id", item.Record.SessionID),
				zap.Bool("inserted", inserted),
				zap.Int("attempts", item.Attempts+1),
			)
			continue
		}

		item.Attempts++
		item.LastErr = err.Error()
		if item.Attempts >= j.maxAttempts {
			stats.Dropped++
			j.logger.Error("purchase audit dropped after max attempts",
				zap.String("session_id", item.Record.SessionID),
				zap.String("user_id", item.Record.UserID),
				zap.Int("token_amount", item.Record.TokenAmount),
				zap.Int("attempts", item.Attempts),
				zap.Error(err),
			)
			continue
		}

		stats.Requeued++
		retry = append(retry, item)
	}

	if stats.Processed > 0 {
		j.logger.Info("audit retry run completed",
			zap.Int("processed", stats.Processed),
			zap.Int("recorded", stats.Recorded),
			zap.Int("requeued", stats.Requeued),
			zap.Int("dropped", stats.Dropped),
		)
	}
	return stats, nil
}
