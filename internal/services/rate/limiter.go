package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const checkoutWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter caps checkout session creation per user. A zero limit disables it.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

func (l *Limiter) AllowCheckout(ctx context.Context, userID string) (int64, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l == nil || l.perMinute == 0 {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, checkoutKey(userID), checkoutWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func checkoutKey(userID string) string {
	return "rate:checkout:min:" + userID
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return sec
}
