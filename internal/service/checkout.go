package service

import (
	"context"
	"strings"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher publishes checkout domain events. Satisfied by
// broker.EventPublisher.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error
	PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error
	PublishStockDepleted(ctx context.Context, event *models.StockDepletedEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderCompleted(context.Context, *models.OrderCompletedEvent) error {
	return nil
}
func (nopPublisher) PublishOrderDeleted(context.Context, *models.OrderDeletedEvent) error {
	return nil
}
func (nopPublisher) PublishStockDepleted(context.Context, *models.StockDepletedEvent) error {
	return nil
}

// NewNopPublisher returns a publisher that drops every event, used when
// the event stream is not configured.
func NewNopPublisher() EventPublisher {
	return nopPublisher{}
}

// CheckoutService turns a cart into a persisted order and decrements
// product stock.
type CheckoutService struct {
	products  *store.ProductStore
	orders    *store.OrderStore
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(products *store.ProductStore, orders *store.OrderStore, publisher EventPublisher) *CheckoutService {
	if publisher == nil {
		publisher = NewNopPublisher()
	}
	return &CheckoutService{
		products:  products,
		orders:    orders,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Checkout validates the cart, persists an order snapshot, decrements
// stock per line, and clears the cart.
//
// The order insert and the per-line stock decrements are independent
// persistence calls: a failure partway through leaves the order persisted
// with stock only partially decremented. There is no reservation step, so
// two terminals can both pass the availability check before either
// decrement lands. Both limitations are accepted for a single-shop
// deployment.
func (s *CheckoutService) Checkout(ctx context.Context, c *cart.Cart, customerName string) (models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(customerName) == "" {
		util.CheckoutFailedTotal.WithLabelValues("empty_customer").Inc()
		return models.Order{}, &models.ValidationError{Field: "customer_name", Reason: "required"}
	}

	items := c.Items()
	if len(items) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return models.Order{}, &models.ValidationError{Field: "cart", Reason: "cart is empty"}
	}

	// Stock may have moved since the items were added; re-check every
	// line before touching the backend.
	for _, item := range items {
		if !s.products.CheckStockAvailability(item.ProductID, item.VariantID, item.Quantity) {
			util.CheckoutFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return models.Order{}, &models.InsufficientStockError{ProductName: item.Name}
		}
	}

	order := models.Order{
		Items:        items,
		Total:        c.Total(),
		CustomerName: customerName,
		Date:         time.Now().UTC(),
		Status:       models.OrderStatusCompleted,
	}

	order, err := s.orders.Add(ctx, order)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("persistence").Inc()
		return models.Order{}, err
	}

	for _, item := range items {
		product, ok := s.products.Get(item.ProductID)
		if !ok {
			continue
		}

		newStock := product.Stock - item.Quantity*item.BottlesPerCard
		if newStock < 0 {
			newStock = 0
		}

		if err := s.products.UpdateStock(ctx, item.ProductID, newStock); err != nil {
			s.logger.Error("Failed to decrement stock after order insert",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			util.CheckoutFailedTotal.WithLabelValues("stock_decrement").Inc()
			return models.Order{}, err
		}

		if newStock == 0 {
			util.StockDepletedTotal.Inc()
			depleted := &models.StockDepletedEvent{
				BaseEvent: models.BaseEvent{
					EventID:   uuid.New().String(),
					EventType: models.EventTypeStockDepleted,
					Timestamp: time.Now(),
				},
				ProductID:   product.ID,
				ProductName: product.Name,
			}
			if err := s.publisher.PublishStockDepleted(ctx, depleted); err != nil {
				s.logger.Error("Failed to publish StockDepleted event", zap.Error(err))
			}
		}
	}

	c.Clear()

	util.OrdersCompletedTotal.Inc()
	s.logger.Info("Checkout completed",
		zap.String("order_id", order.ID),
		zap.String("customer", customerName),
		zap.Float64("total", order.Total),
		zap.Int("lines", len(items)))

	event := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		Date:         order.Date,
		Items:        orderLines(items),
	}
	if err := s.publisher.PublishOrderCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCompleted event", zap.Error(err))
	}

	return order, nil
}

// DeleteOrder removes an order from the history and announces it.
func (s *CheckoutService) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}

	util.OrdersDeletedTotal.Inc()
	event := &models.OrderDeletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderDeleted,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
	}
	if err := s.publisher.PublishOrderDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
	}
	return nil
}

func orderLines(items []models.CartItem) []models.OrderLineData {
	lines := make([]models.OrderLineData, len(items))
	for i, item := range items {
		lines[i] = models.OrderLineData{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			CardType:    item.CardType,
			Cards:       item.Quantity,
			Bottles:     item.Quantity * item.BottlesPerCard,
			LineTotal:   item.TotalPrice,
		}
	}
	return lines
}
