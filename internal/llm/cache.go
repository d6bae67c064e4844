package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// cacheEntry holds the transactions extracted from one document.
type cacheEntry struct {
	expiry       time.Time
	transactions []model.RawTransaction
}

// resultCache remembers extraction results by document content so that
// reprocessing a statement does not call the provider again.
type resultCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &resultCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
		ttl:     ttl,
	}
}

func cacheKey(data []byte, mimeType string) string {
	h := sha256.New()
	h.Write([]byte(mimeType))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *resultCache) get(key string) ([]model.RawTransaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiry) {
		return nil, false
	}
	return append([]model.RawTransaction(nil), entry.transactions...), true
}

// set stores a result and evicts expired entries.
func (c *resultCache) set(key string, txs []model.RawTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{
		transactions: append([]model.RawTransaction(nil), txs...),
		expiry:       now.Add(c.ttl),
	}
}

func (c *resultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cachedExtractor consults the cache before delegating. Only non-empty
// successful results are cached.
type cachedExtractor struct {
	next  Extractor
	cache *resultCache
}

func newCachedExtractor(next Extractor, ttl time.Duration) *cachedExtractor {
	return &cachedExtractor{next: next, cache: newResultCache(ttl)}
}

func (c *cachedExtractor) ExtractTransactions(ctx context.Context, data []byte, mimeType string) ([]model.RawTransaction, error) {
	key := cacheKey(data, mimeType)
	if txs, ok := c.cache.get(key); ok {
		return txs, nil
	}

	txs, err := c.next.ExtractTransactions(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	if len(txs) > 0 {
		c.cache.set(key, txs)
	}
	return txs, nil
}
