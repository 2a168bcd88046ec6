package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheHitAfterLoad(t *testing.T) {
	c := New(Options{TTL: time.Minute}, MetricsHooks{})
	var loads int32
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		atomic.AddInt32(&loads, 1)
		return "value-" + key, true, nil
	}

	for i := 0; i < 3; i++ {
		v, ok, err := c.Get(context.Background(), "a", loader)
		if err != nil || !ok {
			t.Fatalf("unexpected miss: ok=%v err=%v", ok, err)
		}
		if v.(string) != "value-a" {
			t.Fatalf("wrong value %v", v)
		}
	}
	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("expected single load, got %d", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(Options{TTL: 10 * time.Millisecond}, MetricsHooks{})
	var loads int32
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		atomic.AddInt32(&loads, 1)
		return 1, true, nil
	}

	_, _, _ = c.Get(context.Background(), "k", loader)
	time.Sleep(20 * time.Millisecond)
	_, _, _ = c.Get(context.Background(), "k", loader)

	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", got)
	}
}

func TestCacheSingleflightCollapsesConcurrentLoads(t *testing.T) {
	c := New(Options{TTL: time.Minute}, MetricsHooks{})
	var loads int32
	release := make(chan struct{})
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return "v", true, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.Get(context.Background(), "hot", loader)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("expected 1 collapsed load, got %d", got)
	}
}

func TestCacheNegativeEntries(t *testing.T) {
	c := New(Options{TTL: time.Minute, NegativeTTL: time.Minute}, MetricsHooks{})
	loadErr := errors.New("boom")
	var loads int32
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		atomic.AddInt32(&loads, 1)
		return nil, false, loadErr
	}

	for i := 0; i < 2; i++ {
		_, ok, err := c.Get(context.Background(), "bad", loader)
		if ok {
			t.Fatal("expected miss")
		}
		if !errors.Is(err, loadErr) {
			t.Fatalf("expected cached error, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("expected negative entry to be cached, got %d loads", got)
	}
}

func TestCacheEviction(t *testing.T) {
	c := New(Options{TTL: time.Minute, MaxEntries: 2}, MetricsHooks{})
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		return key, true, nil
	}

	_, _, _ = c.Get(context.Background(), "a", loader)
	_, _, _ = c.Get(context.Background(), "b", loader)
	_, _, _ = c.Get(context.Background(), "c", loader)

	if got := c.Len(); got != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", got)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New(Options{TTL: time.Minute}, MetricsHooks{})
	var loads int32
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		atomic.AddInt32(&loads, 1)
		return "v", true, nil
	}

	_, _, _ = c.Get(context.Background(), "k", loader)
	c.Invalidate("k")
	_, _, _ = c.Get(context.Background(), "k", loader)

	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Fatalf("expected reload after invalidate, got %d loads", got)
	}
}
