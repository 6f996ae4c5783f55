package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// DefaultMatrixCacheTTL bounds how long a built matrix is reused.
const DefaultMatrixCacheTTL = 5 * time.Minute

// MatrixCache stores built matrices keyed by everything that determines
// their content.
type MatrixCache struct {
	cache Cache
	ttl   time.Duration
}

func NewMatrixCache(cache Cache, ttl time.Duration) *MatrixCache {
	if ttl <= 0 {
		ttl = DefaultMatrixCacheTTL
	}
	return &MatrixCache{cache: cache, ttl: ttl}
}

// MatrixCacheKey derives the cache key for one build.  The payload version
// changes on every dashboard write, so stale entries are never read.  The
// selected ids are sorted because included groups follow dataset order,
// not toggle order.
func MatrixCacheKey(clientID int64, year int, version int64, state materiality.SelectionState, opts materiality.PlotOptions) string {
	ids := append([]int64(nil), state.SelectedGroups...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(ids)
	_ = enc.Encode(opts)
	return fmt.Sprintf("matrix:%d:%d:v%d:%s", clientID, year, version, hex.EncodeToString(h.Sum(nil))[:16])
}

// GetOrBuild returns the cached matrix for key or builds and stores it.  The
// second return value reports a cache hit: it is false only for the caller
// whose build ran.  A caller that waited on another caller's in-flight build
// for the same key counts as a hit, so each computed matrix is reported once.
func (m *MatrixCache) GetOrBuild(ctx context.Context, key string, build func(ctx context.Context) (*materiality.Matrix, error)) (*materiality.Matrix, bool, error) {
	built := false
	var out materiality.Matrix
	err := m.cache.GetOrSet(ctx, key, &out, m.ttl, func(ctx context.Context) (interface{}, error) {
		built = true
		return build(ctx)
	})
	if err != nil {
		return nil, false, err
	}
	return &out, !built, nil
}

// Invalidate drops one cached matrix.
func (m *MatrixCache) Invalidate(ctx context.Context, key string) error {
	if err := m.cache.Delete(ctx, key); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate matrix cache")
	}
	return nil
}
