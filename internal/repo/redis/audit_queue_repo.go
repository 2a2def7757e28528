package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
)

const AuditRetryQueueKey = "audit:purchases:retry"

// ErrCorruptAudit marks a queue entry that was removed but could not be decoded.
var ErrCorruptAudit = errors.New("corrupt pending audit")

type PendingAudit struct {
	Record   model.PurchaseRecord `json:"record"`
	Attempts int                  `json:"attempts"`
	LastErr  string               `json:"last_error,omitempty"`
}

// AuditQueueRepo is a FIFO of purchase records whose audit insert failed.
type AuditQueueRepo struct {
	client *goredis.Client
}

func NewAuditQueueRepo(client *goredis.Client) *AuditQueueRepo {
	return &AuditQueueRepo{client: client}
}

func (r *AuditQueueRepo) Push(ctx context.Context, item PendingAudit) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode pending audit: %w", err)
	}
	if err := r.client.RPush(ctx, AuditRetryQueueKey, raw).Err(); err != nil {
		return fmt.Errorf("push pending audit: %w", err)
	}
	return nil
}

// Pop removes the oldest entry. ok is false when the queue is empty.
func (r *AuditQueueRepo) Pop(ctx context.Context) (PendingAudit, bool, error) {
	if r.client == nil {
		return PendingAudit{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.LPop(ctx, AuditRetryQueueKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return PendingAudit{}, false, nil
		}
		return PendingAudit{}, false, fmt.Errorf("pop pending audit: %w", err)
	}

	var item PendingAudit
	if err := json.Unmarshal(raw, &item); err != nil {
		return PendingAudit{}, false, fmt.Errorf("%w: %v", ErrCorruptAudit, err)
	}
	return item, true, nil
}

func (r *AuditQueueRepo) Len(ctx context.Context) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	n, err := r.client.LLen(ctx, AuditRetryQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("audit queue length: %w", err)
	}
	return n, nil
}
