package ratecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrFetchHitWithinTTL(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend())

	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	first, err := GetOrFetch(ctx, c, "k", time.Minute, fetch)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := GetOrFetch(ctx, c, "k", time.Minute, fetch)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls)
	}
	if first != 42 || second != 42 {
		t.Fatalf("expected identical values 42, got %d and %d", first, second)
	}
}

func TestGetOrFetchExpiry(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	c := New(backend)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return now }

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	if _, err := GetOrFetch(ctx, c, "k", 10*time.Minute, fetch); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// Just inside the TTL: still a hit.
	now = now.Add(10 * time.Minute)
	if _, err := GetOrFetch(ctx, c, "k", 10*time.Minute, fetch); err != nil {
		t.Fatalf("fetch within ttl: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cached value within ttl, got %d fetches", calls)
	}

	// Past the TTL: entry is treated as absent.
	now = now.Add(time.Second)
	if _, err := GetOrFetch(ctx, c, "k", 10*time.Minute, fetch); err != nil {
		t.Fatalf("fetch after ttl: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refetch after ttl, got %d fetches", calls)
	}
}

func TestGetOrFetchErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend())

	boom := errors.New("provider down")
	calls := 0
	failing := func(context.Context) (int, error) {
		calls++
		return 0, boom
	}

	if _, err := GetOrFetch(ctx, c, "k", time.Minute, failing); err != boom {
		t.Fatalf("expected provider error, got %v", err)
	}

	// The failure must not have been cached: the next call fetches again.
	ok := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}
	v, err := GetOrFetch(ctx, c, "k", time.Minute, ok)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if v != 7 || calls != 2 {
		t.Fatalf("expected fresh fetch after error, v=%d calls=%d", v, calls)
	}
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend())

	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 99, nil
	}

	const callers = 8
	start := make(chan struct{})
	results := make(chan int, callers)
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := GetOrFetch(ctx, c, "k", time.Minute, fetch)
			if err != nil {
				t.Errorf("fetch: %v", err)
				return
			}
			results <- v
		}()
	}

	close(start)
	// Give every goroutine time to join the in-flight request.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly 1 fetch across concurrent misses, got %d", n)
	}
	for v := range results {
		if v != 99 {
			t.Fatalf("expected 99, got %d", v)
		}
	}
}

func TestGetOrFetchDistinctKeys(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend())

	calls := 0
	fetch := func(v int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			calls++
			return v, nil
		}
	}

	a, _ := GetOrFetch(ctx, c, "a", time.Minute, fetch(1))
	b, _ := GetOrFetch(ctx, c, "b", time.Minute, fetch(2))
	if a != 1 || b != 2 || calls != 2 {
		t.Fatalf("keys must not collide: a=%d b=%d calls=%d", a, b, calls)
	}
}
