package fx

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFetcher struct {
	rates map[string]float64
	err   error
	calls int
}

func (f *fakeFetcher) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

func TestCacheServesFreshEntry(t *testing.T) {
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1.5}}
	cache := NewCache(fetcher, 12*time.Hour)

	for i := 0; i < 3; i++ {
		rates, err := cache.GetRates(context.Background(), "aud")
		if err != nil {
			t.Fatal(err)
		}
		if rates["USD"] != 1.5 {
			t.Fatalf("rates: %v", rates)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("fresh entries must not refetch, calls=%d", fetcher.calls)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1.5}}
	cache := NewCache(fetcher, 12*time.Hour)

	current := time.Now()
	cache.now = func() time.Time { return current }

	if _, err := cache.GetRates(context.Background(), "AUD"); err != nil {
		t.Fatal(err)
	}

	current = current.Add(13 * time.Hour)
	fetcher.rates = map[string]float64{"USD": 1.6}

	rates, err := cache.GetRates(context.Background(), "AUD")
	if err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expired entry must refetch, calls=%d", fetcher.calls)
	}
	if rates["USD"] != 1.6 {
		t.Fatalf("rates: %v", rates)
	}
}

func TestCacheStaleFallback(t *testing.T) {
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1.5}}
	cache := NewCache(fetcher, time.Hour)

	current := time.Now()
	cache.now = func() time.Time { return current }

	if _, err := cache.GetRates(context.Background(), "AUD"); err != nil {
		t.Fatal(err)
	}

	current = current.Add(2 * time.Hour)
	fetcher.err = errors.New("fx down")

	rates, err := cache.GetRates(context.Background(), "AUD")
	if err != nil {
		t.Fatalf("stale fallback should hide the fetch error: %v", err)
	}
	if rates["USD"] != 1.5 {
		t.Fatalf("rates: %v", rates)
	}
}

func TestCacheErrorWithoutFallback(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("fx down")}
	cache := NewCache(fetcher, time.Hour)

	if _, err := cache.GetRates(context.Background(), "AUD"); err == nil {
		t.Fatal("expected error with no cached entry to fall back on")
	}
}
