package store

import (
	"context"
	"errors"
	"testing"

	"pos-service/internal/models"
	"pos-service/internal/persist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductStore(t *testing.T) (*ProductStore, *persist.Memory) {
	t.Helper()
	mem := persist.NewMemory()
	return NewProductStore(mem), mem
}

func sampleProduct() models.Product {
	return models.Product{
		ID:          "p1",
		Name:        "Aqua",
		BottleSize:  "600ml",
		BottlePrice: 0.5,
		Category:    "small",
		Stock:       50,
		Variants: []models.ProductVariant{
			{ID: "v1", CardType: "100", Quantity: 5, TotalPrice: 2.5},
		},
	}
}

func TestProductAddAndGet(t *testing.T) {
	s, _ := newProductStore(t)
	ctx := context.Background()

	added, err := s.Add(ctx, sampleProduct())
	require.NoError(t, err)
	assert.Equal(t, "p1", added.ID)
	assert.False(t, added.CreatedAt.IsZero())

	got, ok := s.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Aqua", got.Name)
	assert.Equal(t, 50, got.Stock)
}

func TestProductAddGeneratesID(t *testing.T) {
	s, _ := newProductStore(t)

	p := sampleProduct()
	p.ID = ""
	added, err := s.Add(context.Background(), p)
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
}

func TestProductAddValidation(t *testing.T) {
	s, _ := newProductStore(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*models.Product)
	}{
		{"empty name", func(p *models.Product) { p.Name = "" }},
		{"negative price", func(p *models.Product) { p.BottlePrice = -1 }},
		{"negative stock", func(p *models.Product) { p.Stock = -1 }},
		{"zero variant quantity", func(p *models.Product) { p.Variants[0].Quantity = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := sampleProduct()
			tc.mutate(&p)

			_, err := s.Add(ctx, p)
			var validationErr *models.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}

	assert.Empty(t, s.Products(), "failed adds must not touch the cache")
}

func TestProductFetchAllKeepsCreationOrder(t *testing.T) {
	s, mem := newProductStore(t)
	ctx := context.Background()

	for _, id := range []string{"pa", "pb", "pc"} {
		p := sampleProduct()
		p.ID = id
		_, err := s.Add(ctx, p)
		require.NoError(t, err)
	}

	fresh := NewProductStore(mem)
	require.NoError(t, fresh.FetchAll(ctx))

	products := fresh.Products()
	require.Len(t, products, 3)
	assert.Equal(t, "pa", products[0].ID)
	assert.Equal(t, "pb", products[1].ID)
	assert.Equal(t, "pc", products[2].ID)
}

func TestProductFetchAllFailureKeepsCache(t *testing.T) {
	s, mem := newProductStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleProduct())
	require.NoError(t, err)

	mem.FailWith(errors.New("backend down"))
	err = s.FetchAll(ctx)
	require.Error(t, err)

	var persistErr *models.PersistenceError
	assert.ErrorAs(t, err, &persistErr)
	assert.Len(t, s.Products(), 1, "cache survives a failed fetch")
	assert.NotEmpty(t, s.Err())
}

func TestProductUpdatePartial(t *testing.T) {
	s, _ := newProductStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleProduct())
	require.NoError(t, err)

	newStock := 30
	require.NoError(t, s.Update(ctx, "p1", models.ProductUpdate{Stock: &newStock}))

	got, ok := s.Get("p1")
	require.True(t, ok)
	assert.Equal(t, 30, got.Stock)
	assert.Equal(t, "Aqua", got.Name, "unset fields stay untouched")
	assert.Len(t, got.Variants, 1)
}

func TestProductUpdateUnknownID(t *testing.T) {
	s, _ := newProductStore(t)

	name := "x"
	err := s.Update(context.Background(), "missing", models.ProductUpdate{Name: &name})
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestProductUpdateStockFloorsAtZero(t *testing.T) {
	s, _ := newProductStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleProduct())
	require.NoError(t, err)

	require.NoError(t, s.UpdateStock(ctx, "p1", -10))

	got, _ := s.Get("p1")
	assert.Equal(t, 0, got.Stock)
}

func TestProductDelete(t *testing.T) {
	s, _ := newProductStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleProduct())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "p1"))
	_, ok := s.Get("p1")
	assert.False(t, ok)
}

func TestCheckStockAvailability(t *testing.T) {
	s, _ := newProductStore(t)

	// 50 bottles in stock, variant of 5 bottles per card
	_, err := s.Add(context.Background(), sampleProduct())
	require.NoError(t, err)

	assert.True(t, s.CheckStockAvailability("p1", "v1", 10), "10 cards * 5 bottles = 50, exactly covered")
	assert.False(t, s.CheckStockAvailability("p1", "v1", 11), "11 cards * 5 bottles = 55 > 50")
	assert.False(t, s.CheckStockAvailability("p1", "missing", 1), "unknown variant")
	assert.False(t, s.CheckStockAvailability("missing", "v1", 1), "unknown product")
}

func TestCheckStockAvailabilityNeverMutates(t *testing.T) {
	s, _ := newProductStore(t)

	_, err := s.Add(context.Background(), sampleProduct())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		s.CheckStockAvailability("p1", "v1", 3)
	}

	got, _ := s.Get("p1")
	assert.Equal(t, 50, got.Stock)
}

func TestProductRefetchOnChangeEvent(t *testing.T) {
	mem := persist.NewMemory()
	writer := NewProductStore(mem)
	reader := NewProductStore(mem)
	ctx := context.Background()

	require.NoError(t, reader.FetchAll(ctx))
	unsubscribe, err := reader.SubscribeToChanges()
	require.NoError(t, err)
	defer unsubscribe()

	_, err = writer.Add(ctx, sampleProduct())
	require.NoError(t, err)
	assert.Empty(t, reader.Products(), "no event fired yet")

	mem.NotifyChange(models.TableProducts)
	assert.Len(t, reader.Products(), 1, "change event triggers a full refetch")
}
