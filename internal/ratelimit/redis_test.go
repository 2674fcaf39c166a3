package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/emojiblog/emojiblog/pkg/config"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_SlidingWindow(t *testing.T) {
	store, mr := newRedisStore(t)
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := New(store, config.RateLimitConfig{Limit: 3, Window: time.Minute}, c.Now)
	ctx := context.Background()

	steps := []struct {
		name    string
		advance time.Duration
		want    bool
	}{
		{"first", 0, true},
		{"second", time.Second, true},
		{"third", time.Second, true},
		{"fourth rejected", time.Second, false},
		{"first hit expired", 58 * time.Second, true},
	}

	for _, s := range steps {
		c.Advance(s.advance)
		res, err := l.Limit(ctx, "user_1")
		if err != nil {
			t.Fatalf("%s: Limit() error = %v", s.name, err)
		}
		if res.Success != s.want {
			t.Errorf("%s: Success = %v, want %v", s.name, res.Success, s.want)
		}
	}

	if ttl := mr.TTL("ratelimit:user_1"); ttl != time.Minute {
		t.Errorf("key TTL = %v, want %v", ttl, time.Minute)
	}
}

func TestRedisStore_Decision(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	d, err := store.Allow(ctx, "k", now, time.Minute, 2)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !d.Allowed || d.Remaining != 1 || !d.Reset.Equal(now.Add(time.Minute)) {
		t.Errorf("first Allow() = %+v", d)
	}

	later := now.Add(10 * time.Second)
	if _, err := store.Allow(ctx, "k", later, time.Minute, 2); err != nil {
		t.Fatal(err)
	}
	d, err = store.Allow(ctx, "k", later, time.Minute, 2)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Remaining != 0 || !d.Reset.Equal(now.Add(time.Minute)) {
		t.Errorf("rejected Allow() = %+v", d)
	}
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	if _, err := store.Allow(context.Background(), "k", time.Now(), time.Minute, 3); err == nil {
		t.Error("expected an error when Redis is unreachable")
	}
}
