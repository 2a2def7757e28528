package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/redis"
)

func TestLimiterBlocksOnMinuteWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.AllowCheckout(ctx, "u1")
		if err != nil {
			t.Fatalf("allow checkout #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.AllowCheckout(ctx, "u1")
	if err != nil {
		t.Fatalf("allow checkout #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third checkout in minute window")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}

	if _, allowed, err := limiter.AllowCheckout(ctx, "u2"); err != nil || !allowed {
		t.Fatalf("other users must not be limited: allowed=%v err=%v", allowed, err)
	}

	mr.FastForward(61 * time.Second)

	retryAfter, allowed, err = limiter.AllowCheckout(ctx, "u1")
	if err != nil {
		t.Fatalf("allow checkout after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterRecoversFromWindowWithoutTTL(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	if err := mr.Set(checkoutKey("u1"), "2"); err != nil {
		t.Fatalf("seed window: %v", err)
	}

	limiter := NewLimiter(redrepo.NewRateRepo(client), 2)
	ctx := context.Background()

	retryAfter, allowed, err := limiter.AllowCheckout(ctx, "u1")
	if err != nil {
		t.Fatalf("allow checkout: %v", err)
	}
	if allowed || retryAfter != 60 {
		t.Fatalf("expected block for one window: allowed=%v retry_after=%d", allowed, retryAfter)
	}

	mr.FastForward(61 * time.Second)

	if _, allowed, err := limiter.AllowCheckout(ctx, "u1"); err != nil || !allowed {
		t.Fatalf("user must be allowed after the window: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterDisabledWithZeroLimit(t *testing.T) {
	limiter := NewLimiter(nil, 0)

	for i := 0; i < 5; i++ {
		if _, allowed, err := limiter.AllowCheckout(context.Background(), "u1"); err != nil || !allowed {
			t.Fatalf("disabled limiter must allow: allowed=%v err=%v", allowed, err)
		}
	}
}

func TestLimiterRejectsEmptyUser(t *testing.T) {
	limiter := NewLimiter(nil, 1)
	if _, _, err := limiter.AllowCheckout(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
