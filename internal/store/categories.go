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

// CategoryStore owns the category collection. Names are unique by
// convention only; default entries cannot be deleted.
type CategoryStore struct {
	adapter persist.Adapter
	logger  *zap.Logger

	mu         sync.RWMutex
	categories []models.Category
	state      state
}

// NewCategoryStore creates a category store backed by the given adapter.
func NewCategoryStore(adapter persist.Adapter) *CategoryStore {
	return &CategoryStore{
		adapter: adapter,
		logger:  util.GetLogger(),
	}
}

// FetchAll replaces the cache with the persisted collection, in creation
// order.
func (s *CategoryStore) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.state.setLoading()
	s.mu.Unlock()

	records, err := s.adapter.Select(ctx, models.TableCategories)
	if err != nil {
		s.mu.Lock()
		s.state.setError(err)
		s.mu.Unlock()
		return err
	}

	categories := make([]models.Category, 0, len(records))
	for _, rec := range records {
		var c models.Category
		if err := decodeRecord(rec, &c); err != nil {
			s.logger.Warn("Skipping undecodable category row", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		c.ID = rec.ID
		c.CreatedAt = rec.CreatedAt
		categories = append(categories, c)
	}

	s.mu.Lock()
	s.categories = categories
	s.state.setReady()
	s.mu.Unlock()
	return nil
}

// Categories returns a copy of the cached collection.
func (s *CategoryStore) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Get returns a cached category by id.
func (s *CategoryStore) Get(id string) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// Add validates and persists a new category.
func (s *CategoryStore) Add(ctx context.Context, c models.Category) (models.Category, error) {
	if c.Name == "" {
		err := &models.ValidationError{Field: "name", Reason: "required"}
		s.recordErr(err)
		return models.Category{}, err
	}

	data, err := json.Marshal(c)
	if err != nil {
		s.recordErr(err)
		return models.Category{}, err
	}

	rec, err := s.adapter.Insert(ctx, models.TableCategories, c.ID, data)
	if err != nil {
		s.recordErr(err)
		return models.Category{}, err
	}

	c.ID = rec.ID
	c.CreatedAt = rec.CreatedAt

	s.mu.Lock()
	s.categories = append(s.categories, c)
	sort.SliceStable(s.categories, func(i, j int) bool {
		return s.categories[i].CreatedAt.Before(s.categories[j].CreatedAt)
	})
	s.mu.Unlock()
	return c, nil
}

// Update merges partial edits into the category and persists the result.
func (s *CategoryStore) Update(ctx context.Context, id string, upd models.CategoryUpdate) error {
	s.mu.RLock()
	var current *models.Category
	for i := range s.categories {
		if s.categories[i].ID == id {
			c := s.categories[i]
			current = &c
			break
		}
	}
	s.mu.RUnlock()

	if current == nil {
		err := &models.NotFoundError{Entity: "category", ID: id}
		s.recordErr(err)
		return err
	}

	if upd.Name != nil {
		if *upd.Name == "" {
			err := &models.ValidationError{Field: "name", Reason: "required"}
			s.recordErr(err)
			return err
		}
		current.Name = *upd.Name
	}
	if upd.Description != nil {
		current.Description = *upd.Description
	}

	data, err := json.Marshal(current)
	if err != nil {
		s.recordErr(err)
		return err
	}

	if err := s.adapter.Update(ctx, models.TableCategories, id, data); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i] = *current
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a category. Default entries are protected.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	c, ok := s.Get(id)
	if !ok {
		err := &models.NotFoundError{Entity: "category", ID: id}
		s.recordErr(err)
		return err
	}
	if c.IsDefault {
		err := &models.DefaultEntityProtectedError{Entity: "category", ID: id}
		s.recordErr(err)
		return err
	}

	if err := s.adapter.Delete(ctx, models.TableCategories, id); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	kept := s.categories[:0]
	for _, cat := range s.categories {
		if cat.ID != id {
			kept = append(kept, cat)
		}
	}
	s.categories = kept
	s.mu.Unlock()
	return nil
}

// SubscribeToChanges refetches the collection on any remote change event.
func (s *CategoryStore) SubscribeToChanges() (func(), error) {
	return subscribe(s.adapter, models.TableCategories, s.FetchAll, s.logger)
}

// Loading reports whether a fetch is in flight.
func (s *CategoryStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.loading
}

// Err returns the last recorded error message, if any.
func (s *CategoryStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.errMsg
}

func (s *CategoryStore) recordErr(err error) {
	s.mu.Lock()
	s.state.errMsg = err.Error()
	s.mu.Unlock()
}
