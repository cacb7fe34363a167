package models

import (
	"fmt"
	"time"
)

// Table names in the persistence backend
const (
	TableProducts   = "products"
	TableOrders     = "orders"
	TableCategories = "categories"
	TableCardTypes  = "card_types"
)

// ProductVariant is a product-specific bundle derived from a card type:
// quantity bottles per card at a fixed totalPrice, computed from the
// bottle price at edit time and not recomputed thereafter.
type ProductVariant struct {
	ID         string  `json:"id"`
	CardType   string  `json:"cardType"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

// Product represents a catalog item. Stock counts base units (bottles).
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	BottleSize  string           `json:"bottle_size"`
	BottlePrice float64          `json:"bottle_price"`
	Category    string           `json:"category"`
	Stock       int              `json:"stock"`
	Variants    []ProductVariant `json:"variants"`
	Image       string           `json:"image,omitempty"`
	CreatedAt   time.Time        `json:"-"`
}

// ProductUpdate carries partial product edits; nil fields are untouched.
type ProductUpdate struct {
	Name        *string
	BottleSize  *string
	BottlePrice *float64
	Category    *string
	Stock       *int
	Variants    []ProductVariant
	Image       *string
}

// CardType is a purchasable bundle size (e.g. "100-pack" = 100 bottles).
// Quantities are unique across all card types. Default entries cannot be
// deleted.
type CardType struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Quantity  int       `json:"quantity"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"-"`
}

// CardTypeUpdate carries partial card-type edits.
type CardTypeUpdate struct {
	Label    *string
	Quantity *int
}

// Category groups products. Default entries cannot be deleted.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"-"`
}

// CategoryUpdate carries partial category edits.
type CategoryUpdate struct {
	Name        *string
	Description *string
}

// CartItem is an ephemeral cart line, keyed by "productID-variantID".
// Price and bottles-per-card are snapshots taken at add time; later
// product edits do not affect lines already in the cart.
type CartItem struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	VariantID      string  `json:"variantId"`
	Name           string  `json:"name"`
	BottleSize     string  `json:"bottleSize"`
	CardType       string  `json:"cardType"`
	Quantity       int     `json:"quantity"`
	BottlesPerCard int     `json:"bottlesPerCard"`
	PricePerCard   float64 `json:"pricePerCard"`
	TotalPrice     float64 `json:"totalPrice"`
}

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates status values read from external input.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusCompleted, OrderStatusPending, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown order status %q", s)}
}

// Order is an immutable snapshot taken at checkout. Items are copies of
// the cart lines, never live references to products.
type Order struct {
	ID           string      `json:"id"`
	Items        []CartItem  `json:"items"`
	Total        float64     `json:"total"`
	CustomerName string      `json:"customer_name"`
	Date         time.Time   `json:"date"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"-"`
}

// Role is the process-wide user role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleViewer  Role = "viewer"
)

// ParseRole validates role values read from external input.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleCashier, RoleViewer:
		return Role(s), nil
	}
	return "", &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", s)}
}

// DefaultCategories returns the categories seeded on first run.
func DefaultCategories() []Category {
	return []Category{
		{ID: "small", Name: "Small", Description: "Small sized water bottles", IsDefault: true},
		{ID: "medium", Name: "Medium", Description: "Medium sized water bottles", IsDefault: true},
		{ID: "large", Name: "Large", Description: "Large sized water bottles", IsDefault: true},
	}
}

// DefaultCardTypes returns the card types seeded on first run.
func DefaultCardTypes() []CardType {
	return []CardType{
		{ID: "100", Label: "100-pack", Quantity: 100, IsDefault: true},
		{ID: "200", Label: "200-pack", Quantity: 200, IsDefault: true},
		{ID: "400", Label: "400-pack", Quantity: 400, IsDefault: true},
		{ID: "500", Label: "500-pack", Quantity: 500, IsDefault: true},
	}
}
