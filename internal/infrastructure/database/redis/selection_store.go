package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// DefaultSelectionTTL is how long an idle session keeps its selection.
const DefaultSelectionTTL = 12 * time.Hour

type selectionStore struct {
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

// NewSelectionStore returns a materiality.SelectionStore backed by cache.
// Every Save refreshes the TTL.
func NewSelectionStore(cache Cache, ttl time.Duration, log logging.Logger) materiality.SelectionStore {
	if ttl <= 0 {
		ttl = DefaultSelectionTTL
	}
	return &selectionStore{cache: cache, ttl: ttl, logger: log}
}

func selectionKey(sessionID string, clientID int64, year int) string {
	return fmt.Sprintf("selection:%s:%d:%d", sessionID, clientID, year)
}

func (s *selectionStore) Load(ctx context.Context, sessionID string, clientID int64, year int) (*materiality.SelectionState, error) {
	if err := materiality.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	var state materiality.SelectionState
	err := s.cache.Get(ctx, selectionKey(sessionID, clientID, year), &state)
	switch {
	case err == nil:
		return &state, nil
	case errors.Is(err, ErrCacheMiss):
		return nil, nil
	case errors.IsCode(err, errors.ErrCodeSerialization):
		s.logger.Warn("Discarding unreadable selection state",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Int64(logging.FieldClientID, clientID),
			logging.Int(logging.FieldYear, year),
			logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeSelectionCorrupt, "stored selection is corrupt")
	default:
		return nil, err
	}
}

func (s *selectionStore) Save(ctx context.Context, sessionID string, clientID int64, year int, state materiality.SelectionState) error {
	if err := materiality.ValidateSessionID(sessionID); err != nil {
		return err
	}
	return s.cache.Set(ctx, selectionKey(sessionID, clientID, year), state, s.ttl)
}

func (s *selectionStore) Delete(ctx context.Context, sessionID string, clientID int64, year int) error {
	if err := materiality.ValidateSessionID(sessionID); err != nil {
		return err
	}
	return s.cache.Delete(ctx, selectionKey(sessionID, clientID, year))
}
