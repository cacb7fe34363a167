package service

import (
	"context"
	"testing"

	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/persist"
	"pos-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records every published event.
type capturePublisher struct {
	completed []*models.OrderCompletedEvent
	deleted   []*models.OrderDeletedEvent
	depleted  []*models.StockDepletedEvent
}

func (p *capturePublisher) PublishOrderCompleted(_ context.Context, e *models.OrderCompletedEvent) error {
	p.completed = append(p.completed, e)
	return nil
}

func (p *capturePublisher) PublishOrderDeleted(_ context.Context, e *models.OrderDeletedEvent) error {
	p.deleted = append(p.deleted, e)
	return nil
}

func (p *capturePublisher) PublishStockDepleted(_ context.Context, e *models.StockDepletedEvent) error {
	p.depleted = append(p.depleted, e)
	return nil
}

type checkoutFixture struct {
	products  *store.ProductStore
	orders    *store.OrderStore
	publisher *capturePublisher
	svc       *CheckoutService
	cart      *cart.Cart
}

func newCheckoutFixture(t *testing.T, stock int) *checkoutFixture {
	t.Helper()
	mem := persist.NewMemory()
	products := store.NewProductStore(mem)
	orders := store.NewOrderStore(mem)
	publisher := &capturePublisher{}

	_, err := products.Add(context.Background(), models.Product{
		ID:          "p1",
		Name:        "Aqua",
		BottleSize:  "600ml",
		BottlePrice: 0.5,
		Stock:       stock,
		Variants: []models.ProductVariant{
			{ID: "v1", CardType: "100", Quantity: 5, TotalPrice: 2.5},
		},
	})
	require.NoError(t, err)

	return &checkoutFixture{
		products:  products,
		orders:    orders,
		publisher: publisher,
		svc:       NewCheckoutService(products, orders, publisher),
		cart:      cart.New(products),
	}
}

func (f *checkoutFixture) fill(t *testing.T, cards int) {
	t.Helper()
	product, _ := f.products.Get("p1")
	require.NoError(t, f.cart.AddToCart(product, product.Variants[0]))
	if cards > 1 {
		require.NoError(t, f.cart.UpdateQuantity(cart.ItemID("p1", "v1"), cards))
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.fill(t, 2)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, f.cart, "Siti")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "Siti", order.CustomerName)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, 5.0, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	got, ok := f.orders.Get(order.ID)
	require.True(t, ok)
	assert.Equal(t, order.Total, got.Total)

	// 2 cards * 5 bottles each off the 50 in stock.
	product, _ := f.products.Get("p1")
	assert.Equal(t, 40, product.Stock)

	assert.Empty(t, f.cart.Items(), "cart is cleared after checkout")

	require.Len(t, f.publisher.completed, 1)
	event := f.publisher.completed[0]
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, models.EventTypeOrderCompleted, event.EventType)
	require.Len(t, event.Items, 1)
	assert.Equal(t, 10, event.Items[0].Bottles)
	assert.Empty(t, f.publisher.depleted)
}

func TestCheckoutRequiresCustomerName(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.fill(t, 1)

	_, err := f.svc.Checkout(context.Background(), f.cart, "   ")
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)

	assert.Empty(t, f.orders.Orders())
	assert.Len(t, f.cart.Items(), 1, "cart survives a failed checkout")
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, 50)

	_, err := f.svc.Checkout(context.Background(), f.cart, "Siti")
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCheckoutRechecksStock(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.fill(t, 10)
	ctx := context.Background()

	// Stock dropped between cart fill and checkout.
	require.NoError(t, f.products.UpdateStock(ctx, "p1", 5))

	_, err := f.svc.Checkout(ctx, f.cart, "Siti")
	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	assert.Empty(t, f.orders.Orders(), "no order on a failed re-check")
	assert.Len(t, f.cart.Items(), 1)
}

func TestCheckoutDepletesStockToZero(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.fill(t, 10)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.cart, "Siti")
	require.NoError(t, err)

	product, _ := f.products.Get("p1")
	assert.Equal(t, 0, product.Stock)

	require.Len(t, f.publisher.depleted, 1)
	assert.Equal(t, "p1", f.publisher.depleted[0].ProductID)
	assert.Equal(t, models.EventTypeStockDepleted, f.publisher.depleted[0].EventType)
}

func TestDeleteOrderPublishesEvent(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.fill(t, 1)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, f.cart, "Siti")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(ctx, order.ID))
	_, ok := f.orders.Get(order.ID)
	assert.False(t, ok)

	require.Len(t, f.publisher.deleted, 1)
	assert.Equal(t, order.ID, f.publisher.deleted[0].OrderID)
}

func TestCheckoutAfterRepeatedAdds(t *testing.T) {
	mem := persist.NewMemory()
	products := store.NewProductStore(mem)
	orders := store.NewOrderStore(mem)
	ctx := context.Background()

	_, err := products.Add(ctx, models.Product{
		ID:          "p1",
		Name:        "Galon",
		BottleSize:  "19L",
		BottlePrice: 200,
		Stock:       50,
		Variants: []models.ProductVariant{
			{ID: "v1", CardType: "100", Quantity: 10, TotalPrice: 2000},
		},
	})
	require.NoError(t, err)

	c := cart.New(products)
	product, _ := products.Get("p1")
	for i := 0; i < 5; i++ {
		require.NoError(t, c.AddToCart(product, product.Variants[0]))
	}

	items := c.Items()
	require.Len(t, items, 1, "repeated adds collapse onto one line")
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 10000.0, c.Total())

	svc := NewCheckoutService(products, orders, nil)
	order, err := svc.Checkout(ctx, c, "Ayu")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, order.Total)

	// 5 cards * 10 bottles drained the 50 in stock.
	product, _ = products.Get("p1")
	assert.Equal(t, 0, product.Stock)
	assert.False(t, products.CheckStockAvailability("p1", "v1", 1))
	assert.Empty(t, c.Items())
}

func TestNopPublisherIsUsedWhenNil(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	svc := NewCheckoutService(f.products, f.orders, nil)
	f.fill(t, 1)

	_, err := svc.Checkout(context.Background(), f.cart, "Siti")
	assert.NoError(t, err)
}
