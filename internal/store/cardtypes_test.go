package store

import (
	"context"
	"testing"

	"pos-service/internal/models"
	"pos-service/internal/persist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDefaultCardTypes(t *testing.T, s *CardTypeStore) {
	t.Helper()
	ctx := context.Background()
	for _, ct := range models.DefaultCardTypes() {
		_, err := s.Add(ctx, ct)
		require.NoError(t, err)
	}
}

func TestCardTypesSortedByQuantity(t *testing.T) {
	s := NewCardTypeStore(persist.NewMemory())
	ctx := context.Background()

	_, err := s.Add(ctx, models.CardType{ID: "big", Label: "Big", Quantity: 900})
	require.NoError(t, err)
	_, err = s.Add(ctx, models.CardType{ID: "tiny", Label: "Tiny", Quantity: 10})
	require.NoError(t, err)

	seedDefaultCardTypes(t, s)

	cardTypes := s.CardTypes()
	require.Len(t, cardTypes, 6)
	assert.Equal(t, "tiny", cardTypes[0].ID)
	assert.Equal(t, "big", cardTypes[5].ID)
	for i := 1; i < len(cardTypes); i++ {
		assert.Less(t, cardTypes[i-1].Quantity, cardTypes[i].Quantity)
	}
}

func TestCardTypeQuantityMustBeUnique(t *testing.T) {
	s := NewCardTypeStore(persist.NewMemory())
	seedDefaultCardTypes(t, s)

	_, err := s.Add(context.Background(), models.CardType{Label: "Duplicate", Quantity: 200})
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "200")
	assert.Len(t, s.CardTypes(), 4)
}

func TestCardTypeQuantityMustBePositive(t *testing.T) {
	s := NewCardTypeStore(persist.NewMemory())

	_, err := s.Add(context.Background(), models.CardType{Label: "Zero", Quantity: 0})
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCardTypeUpdateKeepsOwnQuantity(t *testing.T) {
	s := NewCardTypeStore(persist.NewMemory())
	seedDefaultCardTypes(t, s)
	ctx := context.Background()

	// Re-submitting the entry's own quantity is not a collision.
	q := 200
	label := "Double pack"
	require.NoError(t, s.Update(ctx, "200", models.CardTypeUpdate{Label: &label, Quantity: &q}))

	got, ok := s.Get("200")
	require.True(t, ok)
	assert.Equal(t, "Double pack", got.Label)

	// Moving onto another entry's quantity is.
	q = 400
	err := s.Update(ctx, "200", models.CardTypeUpdate{Quantity: &q})
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCardTypeDefaultCannotBeDeleted(t *testing.T) {
	s := NewCardTypeStore(persist.NewMemory())
	seedDefaultCardTypes(t, s)

	err := s.Delete(context.Background(), "100")
	var protected *models.DefaultEntityProtectedError
	require.ErrorAs(t, err, &protected)
	assert.Len(t, s.CardTypes(), 4)
}

func TestCardTypeDeleteCustom(t *testing.T) {
	s := NewCardTypeStore(persist.NewMemory())
	ctx := context.Background()

	_, err := s.Add(ctx, models.CardType{ID: "custom", Label: "Custom", Quantity: 50})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "custom"))
	_, ok := s.Get("custom")
	assert.False(t, ok)
}

func TestCardTypeDeleteUnknown(t *testing.T) {
	s := NewCardTypeStore(persist.NewMemory())

	err := s.Delete(context.Background(), "missing")
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
