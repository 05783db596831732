package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newRedisCache(t *testing.T) *Redis {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWithClient(client, "leadboard_test")
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()

	caches := map[string]Cache{
		"memory": NewMemory(),
		"redis":  newRedisCache(t),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			want := payload{Name: "board", Count: 3}
			if err := c.Set(ctx, "snapshot", want, time.Minute); err != nil {
				t.Fatalf("Set: %v", err)
			}

			var got payload
			if err := c.Get(ctx, "snapshot", &got); err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != want {
				t.Errorf("Get = %+v, want %+v", got, want)
			}

			if err := c.Delete(ctx, "snapshot"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := c.Get(ctx, "snapshot", &got); !errors.Is(err, ErrMiss) {
				t.Errorf("Get after Delete = %v, want ErrMiss", err)
			}
		})
	}
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	ctx := context.Background()

	caches := map[string]Cache{
		"memory": NewMemory(),
		"redis":  newRedisCache(t),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			var got payload
			if err := c.Get(ctx, "never-set", &got); !errors.Is(err, ErrMiss) {
				t.Errorf("Get = %v, want ErrMiss", err)
			}
		})
	}
}

func TestCacheFlush(t *testing.T) {
	ctx := context.Background()

	caches := map[string]Cache{
		"memory": NewMemory(),
		"redis":  newRedisCache(t),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"a", "b"} {
				if err := c.Set(ctx, key, payload{Name: key}, 0); err != nil {
					t.Fatalf("Set(%s): %v", key, err)
				}
			}

			if err := c.Flush(ctx); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			var got payload
			for _, key := range []string{"a", "b"} {
				if err := c.Get(ctx, key, &got); !errors.Is(err, ErrMiss) {
					t.Errorf("Get(%s) after Flush = %v, want ErrMiss", key, err)
				}
			}
		})
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "short", payload{Name: "x"}, time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got payload
	if err := m.Get(ctx, "short", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after expiry = %v, want ErrMiss", err)
	}
}
