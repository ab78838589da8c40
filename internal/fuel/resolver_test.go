package fuel

import (
	"context"
	"errors"
	"testing"
	"time"

	"frete/internal/ratecache"
)

type fakeProvider struct {
	quote Quote
	err   error
	calls int
}

func (f *fakeProvider) CurrentDieselPrice(context.Context) (Quote, error) {
	f.calls++
	return f.quote, f.err
}

func newTestResolver(p Provider) *Resolver {
	return NewResolver(p, ratecache.New(ratecache.NewMemoryBackend()), 10*time.Minute, time.Second)
}

func TestResolveParsesCommaDecimal(t *testing.T) {
	provider := &fakeProvider{quote: Quote{Raw: "6,10", CollectedAt: "2026-08-01", Source: "ANP"}}

	got, err := newTestResolver(provider).Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Value != 6.10 {
		t.Errorf("value = %v, want 6.10", got.Value)
	}
	if got.CollectedAt != "2026-08-01" || got.Source != "ANP" {
		t.Errorf("metadata not carried through: %+v", got)
	}
}

func TestResolveCachesWithinTTL(t *testing.T) {
	provider := &fakeProvider{quote: Quote{Raw: "5,89"}}
	resolver := newTestResolver(provider)

	first, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("expected one provider call, got %d", provider.calls)
	}
	if first != second {
		t.Errorf("cached value differs: %+v vs %+v", first, second)
	}
}

func TestResolveMissingPrice(t *testing.T) {
	provider := &fakeProvider{quote: Quote{Raw: ""}}

	_, err := newTestResolver(provider).Resolve(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestResolveMalformedPrice(t *testing.T) {
	for _, raw := range []string{"abc", "6,1,0", "NaN"} {
		provider := &fakeProvider{quote: Quote{Raw: raw}}
		if _, err := newTestResolver(provider).Resolve(context.Background()); !errors.Is(err, ErrUnavailable) {
			t.Errorf("raw %q: expected ErrUnavailable, got %v", raw, err)
		}
	}
}

func TestResolveProviderErrorNotCached(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	resolver := newTestResolver(provider)

	if _, err := resolver.Resolve(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	provider.err = nil
	provider.quote = Quote{Raw: "6,00"}
	got, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve after recovery: %v", err)
	}
	if got.Value != 6 {
		t.Errorf("value = %v, want 6", got.Value)
	}
	if provider.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", provider.calls)
	}
}
