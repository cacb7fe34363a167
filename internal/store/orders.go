package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"pos-service/internal/models"
	"pos-service/internal/persist"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// OrderStore owns the order history. Orders are created by checkout,
// deletable by an admin, and immutable otherwise.
type OrderStore struct {
	adapter persist.Adapter
	logger  *zap.Logger

	mu     sync.RWMutex
	orders []models.Order
	state  state
}

// NewOrderStore creates an order store backed by the given adapter.
func NewOrderStore(adapter persist.Adapter) *OrderStore {
	return &OrderStore{
		adapter: adapter,
		logger:  util.GetLogger(),
	}
}

// FetchAll replaces the cache with the persisted orders, newest first.
func (s *OrderStore) FetchAll(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "OrderStore.FetchAll")
	defer span.End()

	s.mu.Lock()
	s.state.setLoading()
	s.mu.Unlock()

	records, err := s.adapter.Select(ctx, models.TableOrders)
	if err != nil {
		s.mu.Lock()
		s.state.setError(err)
		s.mu.Unlock()
		return err
	}

	orders := make([]models.Order, 0, len(records))
	for _, rec := range records {
		var o models.Order
		if err := decodeRecord(rec, &o); err != nil {
			s.logger.Warn("Skipping undecodable order row", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		o.ID = rec.ID
		o.CreatedAt = rec.CreatedAt
		orders = append(orders, o)
	}
	sortOrders(orders)

	s.mu.Lock()
	s.orders = orders
	s.state.setReady()
	s.mu.Unlock()
	return nil
}

// Orders returns a copy of the cached history, newest first.
func (s *OrderStore) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Get returns a cached order by id.
func (s *OrderStore) Get(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

// Add persists a new order snapshot.
func (s *OrderStore) Add(ctx context.Context, o models.Order) (models.Order, error) {
	data, err := json.Marshal(o)
	if err != nil {
		s.recordErr(err)
		return models.Order{}, err
	}

	rec, err := s.adapter.Insert(ctx, models.TableOrders, o.ID, data)
	if err != nil {
		s.recordErr(err)
		return models.Order{}, err
	}

	o.ID = rec.ID
	o.CreatedAt = rec.CreatedAt

	s.mu.Lock()
	s.orders = append(s.orders, o)
	sortOrders(s.orders)
	s.mu.Unlock()
	return o, nil
}

// Delete removes an order from the history.
func (s *OrderStore) Delete(ctx context.Context, id string) error {
	if err := s.adapter.Delete(ctx, models.TableOrders, id); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	kept := s.orders[:0]
	for _, o := range s.orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	s.orders = kept
	s.mu.Unlock()
	return nil
}

// SubscribeToChanges refetches the history on any remote change event.
func (s *OrderStore) SubscribeToChanges() (func(), error) {
	return subscribe(s.adapter, models.TableOrders, s.FetchAll, s.logger)
}

// Loading reports whether a fetch is in flight.
func (s *OrderStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.loading
}

// Err returns the last recorded error message, if any.
func (s *OrderStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.errMsg
}

func (s *OrderStore) recordErr(err error) {
	s.mu.Lock()
	s.state.errMsg = err.Error()
	s.mu.Unlock()
}

func sortOrders(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Date.After(orders[j].Date)
	})
}
