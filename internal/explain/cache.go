package explain

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/patterns"
	"algoscope/internal/slogutil"
)

// DefaultCacheEntries bounds the process-lifetime explanation cache.
const DefaultCacheEntries = 4096

// Key is the cache key of a step explanation: a blake2b digest of the source
// line, the pattern and the number of changed variables.
func Key(codeLine string, kind patterns.Kind, changes int) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(codeLine))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(changes)))
	return hex.EncodeToString(h.Sum(nil))
}

// RequestKey is Key for a request.
func RequestKey(req Request) string {
	n := 0
	if req.Step != nil {
		n = len(req.Step.Changes)
	}
	return Key(req.CodeLine(), req.Pattern, n)
}

// Cached memoizes another explainer for the life of the process. Concurrent
// requests for the same key share one backend call.
type Cached struct {
	next   Explainer
	cache  *ristretto.Cache[string, string]
	flight singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
	logger *slog.Logger
}

// NewCached wraps next with a cache of at most entries explanations. Every entry
// costs 1.
func NewCached(next Explainer, entries int64, logger *slog.Logger) (*Cached, error) {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters:        entries * 10,
		MaxCost:            entries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{
		next:   next,
		cache:  cache,
		logger: slogutil.ForComponent(logger, "explain"),
	}, nil
}

// Name implements Explainer.
func (c *Cached) Name() string { return c.next.Name() }

// Explain implements Explainer. Failures are not cached.
func (c *Cached) Explain(ctx context.Context, req Request) (string, error) {
	key := RequestKey(req)
	if text, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return text, nil
	}
	c.misses.Add(1)

	v, err, shared := c.flight.Do(key, func() (interface{}, error) {
		text, err := c.next.Explain(ctx, req)
		if err != nil {
			return "", err
		}
		c.cache.Set(key, text, 1)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("Explanation request coalesced",
			"key", key[:16])
	}
	return v.(string), nil
}

// Stats returns the cache hit and miss counts so far.
func (c *Cached) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Wait blocks until buffered cache writes are applied.
func (c *Cached) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *Cached) Close() {
	c.cache.Close()
}

// FromConfig builds the model backend selected by cfg behind the process cache.
// The template provider has no backend and yields nil.
func FromConfig(cfg config.ExplainerConfig, logger *slog.Logger) (*Cached, error) {
	switch cfg.Provider {
	case "", config.ProviderTemplate:
		return nil, nil
	case config.ProviderOpenAI:
		backend, err := NewOpenAI(cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewCached(backend, cfg.CacheEntries, logger)
	}
	return nil, errors.Newf(errors.ConfigInvalid, "unknown explainer provider %q", cfg.Provider)
}
