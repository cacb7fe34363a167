// Package store holds the entity stores. Each store owns one collection:
// it mediates every mutation through the persistence adapter and keeps an
// in-memory cache mirroring persisted state. Stores are backend-agnostic;
// after a successful adapter call they apply the same change to their own
// cache, and remote change events trigger a full refetch (last write
// wins).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pos-service/internal/persist"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// state carries the per-store fetch state machine:
// Idle -> Loading -> {Ready, Error}.
type state struct {
	loading bool
	errMsg  string
}

func (s *state) setLoading() {
	s.loading = true
	s.errMsg = ""
}

func (s *state) setReady() {
	s.loading = false
	s.errMsg = ""
}

func (s *state) setError(err error) {
	s.loading = false
	s.errMsg = err.Error()
}

func decodeRecord(rec persist.Record, v interface{}) error {
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return fmt.Errorf("failed to decode row %s: %w", rec.ID, err)
	}
	return nil
}

// subscribe wires an adapter subscription to a refetch of the whole
// collection. No-op backends hand back a no-op unsubscribe.
func subscribe(adapter persist.Adapter, table string, fetch func(context.Context) error, logger *zap.Logger) (func(), error) {
	return adapter.Subscribe(table, func() {
		util.ChangeEventsTotal.WithLabelValues(table).Inc()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := fetch(ctx); err != nil {
			logger.Error("Failed to refetch after change event",
				zap.String("table", table),
				zap.Error(err))
		}
	})
}
