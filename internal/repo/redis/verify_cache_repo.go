package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const verifyCachePrefix = "verify:session:"

// VerifiedSession is the cached outcome of a paid checkout session.
type VerifiedSession struct {
	PackageID string `json:"package_id"`
	Coins     int    `json:"coins"`
}

type VerifyCacheRepo struct {
	client *goredis.Client
}

func NewVerifyCacheRepo(client *goredis.Client) *VerifyCacheRepo {
	return &VerifyCacheRepo{client: client}
}

func (r *VerifyCacheRepo) Get(ctx context.Context, sessionID string) (VerifiedSession, bool, error) {
	if r.client == nil {
		return VerifiedSession{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, verifyCacheKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return VerifiedSession{}, false, nil
		}
		return VerifiedSession{}, false, fmt.Errorf("get verify cache: %w", err)
	}

	var out VerifiedSession
	if err := json.Unmarshal(raw, &out); err != nil {
		return VerifiedSession{}, false, fmt.Errorf("decode verify cache: %w", err)
	}
	return out, true, nil
}

func (r *VerifyCacheRepo) Set(ctx context.Context, sessionID string, value VerifiedSession, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode verify cache: %w", err)
	}
	if err := r.client.Set(ctx, verifyCacheKey(sessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set verify cache: %w", err)
	}
	return nil
}

func verifyCacheKey(sessionID string) string {
	return verifyCachePrefix + strings.TrimSpace(sessionID)
}
