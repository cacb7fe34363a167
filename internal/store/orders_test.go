package store

import (
	"context"
	"testing"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/persist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersNewestFirst(t *testing.T) {
	mem := persist.NewMemory()
	s := NewOrderStore(mem)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"o1", "o2", "o3"} {
		_, err := s.Add(ctx, models.Order{
			ID:           id,
			CustomerName: "Customer",
			Total:        10,
			Date:         base.Add(time.Duration(i) * time.Hour),
			Status:       models.OrderStatusCompleted,
		})
		require.NoError(t, err)
	}

	orders := s.Orders()
	require.Len(t, orders, 3)
	assert.Equal(t, "o3", orders[0].ID)
	assert.Equal(t, "o1", orders[2].ID)

	// A fresh fetch yields the same ordering.
	fresh := NewOrderStore(mem)
	require.NoError(t, fresh.FetchAll(ctx))
	fetched := fresh.Orders()
	require.Len(t, fetched, 3)
	assert.Equal(t, "o3", fetched[0].ID)
}

func TestOrderSnapshotRoundTrips(t *testing.T) {
	mem := persist.NewMemory()
	s := NewOrderStore(mem)
	ctx := context.Background()

	order := models.Order{
		CustomerName: "Siti",
		Total:        25,
		Date:         time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC),
		Status:       models.OrderStatusCompleted,
		Items: []models.CartItem{
			{
				ID:             "p1-v1",
				ProductID:      "p1",
				VariantID:      "v1",
				Name:           "Aqua - 600ml",
				CardType:       "100",
				Quantity:       10,
				BottlesPerCard: 5,
				PricePerCard:   2.5,
				TotalPrice:     25,
			},
		},
	}

	added, err := s.Add(ctx, order)
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	fresh := NewOrderStore(mem)
	require.NoError(t, fresh.FetchAll(ctx))

	got, ok := fresh.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, "Siti", got.CustomerName)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 10, got.Items[0].Quantity)
	assert.Equal(t, 5, got.Items[0].BottlesPerCard)
	assert.Equal(t, 25.0, got.Total)
}

func TestOrderDelete(t *testing.T) {
	s := NewOrderStore(persist.NewMemory())
	ctx := context.Background()

	added, err := s.Add(ctx, models.Order{CustomerName: "Budi", Total: 5, Date: time.Now().UTC(), Status: models.OrderStatusCompleted})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, added.ID))
	_, ok := s.Get(added.ID)
	assert.False(t, ok)

	// Deleting the same order again is a no-op.
	assert.NoError(t, s.Delete(ctx, added.ID))
}
