package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/serverwatch/availability-watch/internal/config"
)

const (
	catalogCacheKey = "catalog"
	maxCatalogBytes = 16 << 20
)

// ErrUnexpectedStatus is returned when the catalog endpoint answers with a
// non-2xx status.
var ErrUnexpectedStatus = errors.New("provider: unexpected status")

// Client fetches the availability catalog. Outbound calls are throttled by
// Limiter and the raw document is cached for TTL when Cache is set.
type Client struct {
	HTTP    *http.Client
	URL     string
	Limiter *rate.Limiter
	Cache   Cache
	TTL     time.Duration
}

// NewClient builds a Client from cfg. cache may be nil to disable caching.
func NewClient(cfg config.ProviderConfig, cache Cache) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		URL:     cfg.CatalogURL,
		Limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		Cache:   cache,
		TTL:     cfg.CacheTTL,
	}
}

// FetchCatalog returns the current catalog, from cache when fresh.
// Cache failures are logged and fall through to the provider.
func (c *Client) FetchCatalog(ctx context.Context) (*Catalog, error) {
	ctx, span := otel.Tracer("provider").Start(ctx, "provider.FetchCatalog")
	defer span.End()

	if c.cacheEnabled() {
		raw, ok, err := c.Cache.Get(ctx, catalogCacheKey)
		if err != nil {
			log.Warn().Err(err).Msg("catalog cache get failed")
		} else if ok {
			if cat, err := decodeCatalog(raw); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return cat, nil
			}
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	raw, err := c.download(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	cat, err := decodeCatalog(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if c.cacheEnabled() {
		if err := c.Cache.Set(ctx, catalogCacheKey, raw, c.TTL); err != nil {
			log.Warn().Err(err).Msg("catalog cache set failed")
		}
	}
	return cat, nil
}

func (c *Client) cacheEnabled() bool { return c.Cache != nil && c.TTL > 0 }

func (c *Client) download(ctx context.Context) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("provider: throttle: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("provider: read catalog: %w", err)
	}
	return raw, nil
}

func decodeCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("provider: decode catalog: %w", err)
	}
	return &cat, nil
}
