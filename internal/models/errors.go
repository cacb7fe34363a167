package models

import "fmt"

// ValidationError reports malformed input rejected before any persistence
// call. Recoverable; the operation has no side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InsufficientStockError is returned by stock checks during cart mutation
// and checkout.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// DefaultEntityProtectedError is returned when deletion targets a seeded
// default category or card type.
type DefaultEntityProtectedError struct {
	Entity string
	ID     string
}

func (e *DefaultEntityProtectedError) Error() string {
	return fmt.Sprintf("cannot delete default %s %q", e.Entity, e.ID)
}

// NotFoundError is returned when an entity lookup misses.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// PersistenceError wraps any backend failure. Stores record the message
// and return it to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
