package service

import (
	"context"
	"testing"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/persist"
	"pos-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache is an in-process SummaryCache for tests.
type memoryCache struct {
	payload []byte
	writes  int
}

func (c *memoryCache) GetCachedSummary(context.Context) ([]byte, error) {
	return c.payload, nil
}

func (c *memoryCache) CacheSummary(_ context.Context, payload []byte, _ time.Duration) error {
	c.payload = payload
	c.writes++
	return nil
}

func reportingFixture(t *testing.T) (*store.ProductStore, *store.OrderStore) {
	t.Helper()
	mem := persist.NewMemory()
	products := store.NewProductStore(mem)
	orders := store.NewOrderStore(mem)
	ctx := context.Background()

	for _, p := range []models.Product{
		{ID: "p1", Name: "Aqua", Stock: 100},
		{ID: "p2", Name: "Galon", Stock: 100},
	} {
		_, err := products.Add(ctx, p)
		require.NoError(t, err)
	}

	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	for _, o := range []models.Order{
		{
			ID: "o1", CustomerName: "Siti", Total: 25, Date: day, Status: models.OrderStatusCompleted,
			Items: []models.CartItem{
				{ProductID: "p1", Name: "Aqua - 600ml", Quantity: 10, BottlesPerCard: 5, TotalPrice: 25},
			},
		},
		{
			ID: "o2", CustomerName: "Budi", Total: 9, Date: day.Add(time.Hour), Status: models.OrderStatusCompleted,
			Items: []models.CartItem{
				{ProductID: "p2", Name: "Galon - 19L", Quantity: 1, BottlesPerCard: 100, TotalPrice: 9},
			},
		},
		{
			ID: "o3", CustomerName: "Siti", Total: 5, Date: day.Add(2 * time.Hour), Status: models.OrderStatusCompleted,
			Items: []models.CartItem{
				{ProductID: "p1", Name: "Aqua - 600ml", Quantity: 2, BottlesPerCard: 5, TotalPrice: 5},
			},
		},
	} {
		_, err := orders.Add(ctx, o)
		require.NoError(t, err)
	}

	return products, orders
}

func TestSummaryAggregates(t *testing.T) {
	products, orders := reportingFixture(t)
	svc := NewReportingService(products, orders, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 39.0, summary.TotalRevenue)
	assert.Equal(t, 3, summary.TotalOrders)
	assert.Equal(t, 13.0, summary.AvgOrderValue)
	assert.Equal(t, 2, summary.TotalProducts)
	assert.Equal(t, 2, summary.UniqueCustomers)

	require.Len(t, summary.TopProducts, 2)
	// p2 sold 100 bottles in one card, p1 sold 60 across two orders.
	assert.Equal(t, "p2", summary.TopProducts[0].ProductID)
	assert.Equal(t, 100, summary.TopProducts[0].Bottles)
	assert.Equal(t, "p1", summary.TopProducts[1].ProductID)
	assert.Equal(t, 60, summary.TopProducts[1].Bottles)
	assert.Equal(t, 12, summary.TopProducts[1].Cards)
	assert.Equal(t, 30.0, summary.TopProducts[1].Revenue)
}

func TestSummaryEmptyHistory(t *testing.T) {
	mem := persist.NewMemory()
	svc := NewReportingService(store.NewProductStore(mem), store.NewOrderStore(mem), nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.TotalOrders)
	assert.Zero(t, summary.AvgOrderValue)
	assert.Empty(t, summary.TopProducts)
}

func TestCustomerAggregates(t *testing.T) {
	products, orders := reportingFixture(t)
	svc := NewReportingService(products, orders, nil)

	customers := svc.Customers()
	require.Len(t, customers, 2)

	// Siti spent 30 across two orders, Budi 9 in one.
	assert.Equal(t, "Siti", customers[0].Name)
	assert.Equal(t, 2, customers[0].Orders)
	assert.Equal(t, 30.0, customers[0].TotalSpent)
	assert.Equal(t, time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC), customers[0].LastOrder)

	assert.Equal(t, "Budi", customers[1].Name)
	assert.Equal(t, 1, customers[1].Orders)
	assert.Equal(t, 9.0, customers[1].TotalSpent)
}

func TestCustomersEmptyHistory(t *testing.T) {
	mem := persist.NewMemory()
	svc := NewReportingService(store.NewProductStore(mem), store.NewOrderStore(mem), nil)

	assert.Empty(t, svc.Customers())
}

func TestSummaryServedFromCache(t *testing.T) {
	products, orders := reportingFixture(t)
	cache := &memoryCache{}
	svc := NewReportingService(products, orders, cache)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.writes)

	// New orders land but the cached summary is still served.
	_, err = orders.Add(ctx, models.Order{
		CustomerName: "Ani", Total: 100, Date: time.Now().UTC(), Status: models.OrderStatusCompleted,
	})
	require.NoError(t, err)

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalRevenue, second.TotalRevenue)
	assert.Equal(t, 1, cache.writes, "a cache hit does not recompute")
}
