package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"pos-service/internal/models"
	"pos-service/internal/persist"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// CardTypeStore owns the card-type collection. Quantities are unique
// across all card types and default entries cannot be deleted.
type CardTypeStore struct {
	adapter persist.Adapter
	logger  *zap.Logger

	mu        sync.RWMutex
	cardTypes []models.CardType
	state     state
}

// NewCardTypeStore creates a card-type store backed by the given adapter.
func NewCardTypeStore(adapter persist.Adapter) *CardTypeStore {
	return &CardTypeStore{
		adapter: adapter,
		logger:  util.GetLogger(),
	}
}

// FetchAll replaces the cache with the persisted collection, sorted by
// quantity ascending.
func (s *CardTypeStore) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.state.setLoading()
	s.mu.Unlock()

	records, err := s.adapter.Select(ctx, models.TableCardTypes)
	if err != nil {
		s.mu.Lock()
		s.state.setError(err)
		s.mu.Unlock()
		return err
	}

	cardTypes := make([]models.CardType, 0, len(records))
	for _, rec := range records {
		var ct models.CardType
		if err := decodeRecord(rec, &ct); err != nil {
			s.logger.Warn("Skipping undecodable card type row", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		ct.ID = rec.ID
		ct.CreatedAt = rec.CreatedAt
		cardTypes = append(cardTypes, ct)
	}
	sortCardTypes(cardTypes)

	s.mu.Lock()
	s.cardTypes = cardTypes
	s.state.setReady()
	s.mu.Unlock()
	return nil
}

// CardTypes returns a copy of the cached collection, by quantity
// ascending.
func (s *CardTypeStore) CardTypes() []models.CardType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CardType, len(s.cardTypes))
	copy(out, s.cardTypes)
	return out
}

// Get returns a cached card type by id.
func (s *CardTypeStore) Get(id string) (models.CardType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ct := range s.cardTypes {
		if ct.ID == id {
			return ct, true
		}
	}
	return models.CardType{}, false
}

// Add validates quantity uniqueness and persists a new card type.
func (s *CardTypeStore) Add(ctx context.Context, ct models.CardType) (models.CardType, error) {
	if ct.Quantity <= 0 {
		err := &models.ValidationError{Field: "quantity", Reason: "must be positive"}
		s.recordErr(err)
		return models.CardType{}, err
	}
	if err := s.checkQuantityUnique(ct.Quantity, ""); err != nil {
		s.recordErr(err)
		return models.CardType{}, err
	}

	data, err := json.Marshal(ct)
	if err != nil {
		s.recordErr(err)
		return models.CardType{}, err
	}

	rec, err := s.adapter.Insert(ctx, models.TableCardTypes, ct.ID, data)
	if err != nil {
		s.recordErr(err)
		return models.CardType{}, err
	}

	ct.ID = rec.ID
	ct.CreatedAt = rec.CreatedAt

	s.mu.Lock()
	s.cardTypes = append(s.cardTypes, ct)
	sortCardTypes(s.cardTypes)
	s.mu.Unlock()
	return ct, nil
}

// Update merges partial edits, re-validating quantity uniqueness against
// every other card type.
func (s *CardTypeStore) Update(ctx context.Context, id string, upd models.CardTypeUpdate) error {
	s.mu.RLock()
	var current *models.CardType
	for i := range s.cardTypes {
		if s.cardTypes[i].ID == id {
			c := s.cardTypes[i]
			current = &c
			break
		}
	}
	s.mu.RUnlock()

	if current == nil {
		err := &models.NotFoundError{Entity: "card type", ID: id}
		s.recordErr(err)
		return err
	}

	if upd.Quantity != nil {
		if *upd.Quantity <= 0 {
			err := &models.ValidationError{Field: "quantity", Reason: "must be positive"}
			s.recordErr(err)
			return err
		}
		if err := s.checkQuantityUnique(*upd.Quantity, id); err != nil {
			s.recordErr(err)
			return err
		}
		current.Quantity = *upd.Quantity
	}
	if upd.Label != nil {
		current.Label = *upd.Label
	}

	data, err := json.Marshal(current)
	if err != nil {
		s.recordErr(err)
		return err
	}

	if err := s.adapter.Update(ctx, models.TableCardTypes, id, data); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	for i := range s.cardTypes {
		if s.cardTypes[i].ID == id {
			s.cardTypes[i] = *current
			break
		}
	}
	sortCardTypes(s.cardTypes)
	s.mu.Unlock()
	return nil
}

// Delete removes a card type. Default entries are protected.
func (s *CardTypeStore) Delete(ctx context.Context, id string) error {
	ct, ok := s.Get(id)
	if !ok {
		err := &models.NotFoundError{Entity: "card type", ID: id}
		s.recordErr(err)
		return err
	}
	if ct.IsDefault {
		err := &models.DefaultEntityProtectedError{Entity: "card type", ID: id}
		s.recordErr(err)
		return err
	}

	if err := s.adapter.Delete(ctx, models.TableCardTypes, id); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	kept := s.cardTypes[:0]
	for _, c := range s.cardTypes {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.cardTypes = kept
	s.mu.Unlock()
	return nil
}

// SubscribeToChanges refetches the collection on any remote change event.
func (s *CardTypeStore) SubscribeToChanges() (func(), error) {
	return subscribe(s.adapter, models.TableCardTypes, s.FetchAll, s.logger)
}

// Loading reports whether a fetch is in flight.
func (s *CardTypeStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.loading
}

// Err returns the last recorded error message, if any.
func (s *CardTypeStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.errMsg
}

func (s *CardTypeStore) recordErr(err error) {
	s.mu.Lock()
	s.state.errMsg = err.Error()
	s.mu.Unlock()
}

// checkQuantityUnique rejects a quantity already used by another card
// type. excludeID skips the entry being edited.
func (s *CardTypeStore) checkQuantityUnique(quantity int, excludeID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ct := range s.cardTypes {
		if ct.Quantity == quantity && ct.ID != excludeID {
			return &models.ValidationError{
				Field:  "quantity",
				Reason: fmt.Sprintf("a card type with %d bottles already exists", quantity),
			}
		}
	}
	return nil
}

func sortCardTypes(cardTypes []models.CardType) {
	sort.SliceStable(cardTypes, func(i, j int) bool {
		return cardTypes[i].Quantity < cardTypes[j].Quantity
	})
}
