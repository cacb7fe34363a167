// Package cart holds the ephemeral per-terminal cart state. Carts never
// touch the persistence backend; checkout snapshots them into an order.
package cart

import (
	"fmt"
	"sync"

	"pos-service/internal/models"
)

// AvailabilityChecker validates stock before any cart mutation.
// Implemented by store.ProductStore.
type AvailabilityChecker interface {
	CheckStockAvailability(productID, variantID string, requestedCards int) bool
}

// Cart is one terminal's cart. Lines are keyed by the composite
// "productID-variantID" id, so re-adding the same variant increments the
// existing line instead of duplicating it.
type Cart struct {
	checker AvailabilityChecker

	mu    sync.Mutex
	items []models.CartItem
}

// New creates an empty cart.
func New(checker AvailabilityChecker) *Cart {
	return &Cart{checker: checker}
}

// ItemID builds the composite cart line id.
func ItemID(productID, variantID string) string {
	return fmt.Sprintf("%s-%s", productID, variantID)
}

// AddToCart adds one card of the given variant, incrementing the existing
// line if present. Price and bottles-per-card are copied from the variant
// at add time. Fails without mutating the cart when stock cannot cover
// the new quantity.
func (c *Cart) AddToCart(product models.Product, variant models.ProductVariant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemID := ItemID(product.ID, variant.ID)
	existing := -1
	for i, item := range c.items {
		if item.ID == itemID {
			existing = i
			break
		}
	}

	requested := 1
	if existing >= 0 {
		requested = c.items[existing].Quantity + 1
	}
	if !c.checker.CheckStockAvailability(product.ID, variant.ID, requested) {
		return &models.InsufficientStockError{ProductName: product.Name}
	}

	if existing >= 0 {
		c.items[existing].Quantity = requested
		c.items[existing].TotalPrice = float64(requested) * c.items[existing].PricePerCard
		return nil
	}

	c.items = append(c.items, models.CartItem{
		ID:             itemID,
		ProductID:      product.ID,
		VariantID:      variant.ID,
		Name:           fmt.Sprintf("%s - %s", product.Name, product.BottleSize),
		BottleSize:     product.BottleSize,
		CardType:       variant.CardType,
		Quantity:       1,
		BottlesPerCard: variant.Quantity,
		PricePerCard:   variant.TotalPrice,
		TotalPrice:     variant.TotalPrice,
	})
	return nil
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the
// line; otherwise availability is re-validated and a failure leaves the
// cart unchanged.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if quantity <= 0 {
		c.Remove(itemID)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.ID != itemID {
			continue
		}
		if !c.checker.CheckStockAvailability(item.ProductID, item.VariantID, quantity) {
			return &models.InsufficientStockError{ProductName: item.Name}
		}
		c.items[i].Quantity = quantity
		c.items[i].TotalPrice = float64(quantity) * item.PricePerCard
		return nil
	}
	return &models.NotFoundError{Entity: "cart item", ID: itemID}
}

// Remove drops a line unconditionally.
func (c *Cart) Remove(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total sums every line's total price.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, item := range c.items {
		total += item.TotalPrice
	}
	return total
}

// Manager hands out carts keyed by terminal id, creating them on demand.
type Manager struct {
	checker AvailabilityChecker

	mu    sync.Mutex
	carts map[string]*Cart
}

// NewManager creates an empty cart manager.
func NewManager(checker AvailabilityChecker) *Manager {
	return &Manager{
		checker: checker,
		carts:   map[string]*Cart{},
	}
}

// Cart returns the terminal's cart, creating it if needed.
func (m *Manager) Cart(terminalID string) *Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[terminalID]
	if !ok {
		c = New(m.checker)
		m.carts[terminalID] = c
	}
	return c
}
