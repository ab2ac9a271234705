package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/serverwatch/availability-watch/internal/config"
	"github.com/serverwatch/availability-watch/internal/domain"
)

func catalogServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(url string, cache Cache, ttl time.Duration) *Client {
	return NewClient(config.ProviderConfig{
		CatalogURL: url,
		Timeout:    2 * time.Second,
		RPS:        100,
		Burst:      10,
		CacheTTL:   ttl,
	}, cache)
}

func TestClient_FetchCatalog_NoCache(t *testing.T) {
	srv, hits := catalogServer(t, http.StatusOK, sampleCatalog)
	c := newTestClient(srv.URL, nil, 0)

	cat, err := c.FetchCatalog(context.Background())
	if err != nil || !cat.IsOfferAvailable("160sk1", domain.ZoneCanada) {
		t.Fatalf("expected available in canada, err=%v", err)
	}
	cat, err = c.FetchCatalog(context.Background())
	if err != nil || cat.IsOfferAvailable("160sk1", domain.ZoneEurope) {
		t.Fatalf("expected unavailable in europe, err=%v", err)
	}
	if atomic.LoadInt32(hits) != 2 {
		t.Fatalf("expected 2 upstream hits without cache, got %d", *hits)
	}
}

func TestClient_FetchCatalog_UsesCache(t *testing.T) {
	srv, hits := catalogServer(t, http.StatusOK, sampleCatalog)
	c := newTestClient(srv.URL, NewMemoryCache(), time.Minute)

	for i := 0; i < 3; i++ {
		cat, err := c.FetchCatalog(context.Background())
		if err != nil {
			t.Fatalf("FetchCatalog: %v", err)
		}
		if len(cat.Answer.Availability) != 4 {
			t.Fatalf("unexpected catalog size %d", len(cat.Answer.Availability))
		}
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Fatalf("expected 1 upstream hit with cache, got %d", *hits)
	}
}

func TestClient_FetchCatalog_BadStatus(t *testing.T) {
	srv, _ := catalogServer(t, http.StatusServiceUnavailable, "down")
	c := newTestClient(srv.URL, nil, 0)
	_, err := c.FetchCatalog(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestClient_FetchCatalog_BadJSON(t *testing.T) {
	srv, _ := catalogServer(t, http.StatusOK, "{nope")
	c := newTestClient(srv.URL, NewMemoryCache(), time.Minute)
	if _, err := c.FetchCatalog(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClient_FetchCatalog_Unreachable(t *testing.T) {
	srv, _ := catalogServer(t, http.StatusOK, sampleCatalog)
	url := srv.URL
	srv.Close()
	c := newTestClient(url, nil, 0)
	if _, err := c.FetchCatalog(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestClient_ThrottleHonoursContext(t *testing.T) {
	srv, _ := catalogServer(t, http.StatusOK, sampleCatalog)
	c := newTestClient(srv.URL, nil, 0)
	c.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	if _, err := c.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("first call should consume the burst: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.FetchCatalog(ctx); err == nil {
		t.Fatalf("expected throttle error once the burst is spent")
	}
}

type failingCache struct{ gets, sets int32 }

func (f *failingCache) Get(context.Context, string) ([]byte, bool, error) {
	atomic.AddInt32(&f.gets, 1)
	return nil, false, errors.New("cache down")
}

func (f *failingCache) Set(context.Context, string, []byte, time.Duration) error {
	atomic.AddInt32(&f.sets, 1)
	return errors.New("cache down")
}

func TestClient_CacheFailureFallsThrough(t *testing.T) {
	srv, hits := catalogServer(t, http.StatusOK, sampleCatalog)
	fc := &failingCache{}
	c := newTestClient(srv.URL, fc, time.Minute)

	if _, err := c.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("cache errors must not fail the fetch: %v", err)
	}
	if *hits != 1 || fc.gets != 1 || fc.sets != 1 {
		t.Fatalf("unexpected counters: hits=%d gets=%d sets=%d", *hits, fc.gets, fc.sets)
	}
}
