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

// ProductStore owns the product collection.
type ProductStore struct {
	adapter persist.Adapter
	logger  *zap.Logger

	mu       sync.RWMutex
	products []models.Product
	state    state
}

// NewProductStore creates a product store backed by the given adapter.
func NewProductStore(adapter persist.Adapter) *ProductStore {
	return &ProductStore{
		adapter: adapter,
		logger:  util.GetLogger(),
	}
}

// FetchAll replaces the cache with the persisted collection, in creation
// order. On failure the cache is left unchanged and the error recorded.
func (s *ProductStore) FetchAll(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "ProductStore.FetchAll")
	defer span.End()

	s.mu.Lock()
	s.state.setLoading()
	s.mu.Unlock()

	records, err := s.adapter.Select(ctx, models.TableProducts)
	if err != nil {
		s.mu.Lock()
		s.state.setError(err)
		s.mu.Unlock()
		return err
	}

	products := make([]models.Product, 0, len(records))
	for _, rec := range records {
		var p models.Product
		if err := decodeRecord(rec, &p); err != nil {
			s.logger.Warn("Skipping undecodable product row", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		p.ID = rec.ID
		p.CreatedAt = rec.CreatedAt
		products = append(products, p)
	}

	s.mu.Lock()
	s.products = products
	s.state.setReady()
	s.mu.Unlock()
	return nil
}

// Products returns a copy of the cached collection.
func (s *ProductStore) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get returns a cached product by id.
func (s *ProductStore) Get(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Add validates and persists a new product.
func (s *ProductStore) Add(ctx context.Context, p models.Product) (models.Product, error) {
	if err := validateProduct(p); err != nil {
		s.recordErr(err)
		return models.Product{}, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		s.recordErr(err)
		return models.Product{}, err
	}

	rec, err := s.adapter.Insert(ctx, models.TableProducts, p.ID, data)
	if err != nil {
		s.recordErr(err)
		return models.Product{}, err
	}

	p.ID = rec.ID
	p.CreatedAt = rec.CreatedAt

	s.mu.Lock()
	s.products = append(s.products, p)
	sort.SliceStable(s.products, func(i, j int) bool {
		return s.products[i].CreatedAt.Before(s.products[j].CreatedAt)
	})
	s.mu.Unlock()
	return p, nil
}

// Update merges partial edits into the product and persists the result.
func (s *ProductStore) Update(ctx context.Context, id string, upd models.ProductUpdate) error {
	s.mu.RLock()
	var current *models.Product
	for i := range s.products {
		if s.products[i].ID == id {
			c := s.products[i]
			current = &c
			break
		}
	}
	s.mu.RUnlock()

	if current == nil {
		err := &models.NotFoundError{Entity: "product", ID: id}
		s.recordErr(err)
		return err
	}

	if upd.Name != nil {
		current.Name = *upd.Name
	}
	if upd.BottleSize != nil {
		current.BottleSize = *upd.BottleSize
	}
	if upd.BottlePrice != nil {
		current.BottlePrice = *upd.BottlePrice
	}
	if upd.Category != nil {
		current.Category = *upd.Category
	}
	if upd.Stock != nil {
		current.Stock = *upd.Stock
	}
	if upd.Variants != nil {
		current.Variants = upd.Variants
	}
	if upd.Image != nil {
		current.Image = *upd.Image
	}

	if err := validateProduct(*current); err != nil {
		s.recordErr(err)
		return err
	}

	data, err := json.Marshal(current)
	if err != nil {
		s.recordErr(err)
		return err
	}

	if err := s.adapter.Update(ctx, models.TableProducts, id, data); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = *current
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// UpdateStock sets a product's stock level, flooring at zero.
func (s *ProductStore) UpdateStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		stock = 0
	}
	return s.Update(ctx, id, models.ProductUpdate{Stock: &stock})
}

// Delete removes a product.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	if err := s.adapter.Delete(ctx, models.TableProducts, id); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	s.mu.Unlock()
	return nil
}

// CheckStockAvailability reports whether the product can cover the
// requested number of cards of the given variant. Read-only; never
// mutates stock. Returns false when the product or variant is unknown.
func (s *ProductStore) CheckStockAvailability(productID, variantID string, requestedCards int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID != productID {
			continue
		}
		for _, v := range p.Variants {
			if v.ID == variantID {
				needed := requestedCards * v.Quantity
				return p.Stock >= needed
			}
		}
		return false
	}
	return false
}

// SubscribeToChanges refetches the collection on any remote change event.
func (s *ProductStore) SubscribeToChanges() (func(), error) {
	return subscribe(s.adapter, models.TableProducts, s.FetchAll, s.logger)
}

// Loading reports whether a fetch is in flight.
func (s *ProductStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.loading
}

// Err returns the last recorded error message, if any.
func (s *ProductStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.errMsg
}

func (s *ProductStore) recordErr(err error) {
	s.mu.Lock()
	s.state.errMsg = err.Error()
	s.mu.Unlock()
}

func validateProduct(p models.Product) error {
	if p.Name == "" {
		return &models.ValidationError{Field: "name", Reason: "required"}
	}
	if p.BottlePrice < 0 {
		return &models.ValidationError{Field: "bottle_price", Reason: "must not be negative"}
	}
	if p.Stock < 0 {
		return &models.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	for _, v := range p.Variants {
		if v.Quantity <= 0 {
			return &models.ValidationError{Field: "variants", Reason: "variant quantity must be positive"}
		}
	}
	return nil
}
