package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/metrics"
)

// Cache memoizes Split results by (text, chunk size).
type Cache struct {
	items *cache.Cache
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{items: cache.New(ttl, 2*ttl)}
}

// Split returns the chunks for text, computing them on a miss.
// The returned slice is a copy owned by the caller.
func (c *Cache) Split(text string, maxWords int) ([]document.Chunk, error) {
	key := cacheKey(text, maxWords)
	if v, ok := c.items.Get(key); ok {
		metrics.ChunkCacheTotal.WithLabelValues("hit").Inc()
		return copyChunks(v.([]document.Chunk)), nil
	}
	metrics.ChunkCacheTotal.WithLabelValues("miss").Inc()

	chunks, err := Split(text, maxWords)
	if err != nil {
		return nil, err
	}
	c.items.SetDefault(key, chunks)
	return copyChunks(chunks), nil
}

// Len returns the number of cached entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

func cacheKey(text string, maxWords int) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:]) + ":" + strconv.Itoa(maxWords)
}

func copyChunks(chunks []document.Chunk) []document.Chunk {
	if chunks == nil {
		return nil
	}
	out := make([]document.Chunk, len(chunks))
	copy(out, chunks)
	return out
}
