package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

const summaryCacheTTL = 60 * time.Second

// SummaryCache caches computed report summaries. Satisfied by
// redisclient.Client; nil disables caching.
type SummaryCache interface {
	GetCachedSummary(ctx context.Context) ([]byte, error)
	CacheSummary(ctx context.Context, payload []byte, ttl time.Duration) error
}

// ProductSales aggregates one product's sold volume across orders.
type ProductSales struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Cards     int     `json:"cards"`
	Bottles   int     `json:"bottles"`
	Revenue   float64 `json:"revenue"`
}

// SalesSummary is the reports-page aggregate: revenue, order count,
// average order value, catalog size, unique customers, top sellers.
type SalesSummary struct {
	TotalRevenue    float64        `json:"total_revenue"`
	TotalOrders     int            `json:"total_orders"`
	AvgOrderValue   float64        `json:"avg_order_value"`
	TotalProducts   int            `json:"total_products"`
	UniqueCustomers int            `json:"unique_customers"`
	TopProducts     []ProductSales `json:"top_products"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// CustomerSales aggregates one customer's order history.
type CustomerSales struct {
	Name       string    `json:"name"`
	Orders     int       `json:"orders"`
	TotalSpent float64   `json:"total_spent"`
	LastOrder  time.Time `json:"last_order"`
}

// ReportingService computes sales aggregates from the store caches.
type ReportingService struct {
	products *store.ProductStore
	orders   *store.OrderStore
	cache    SummaryCache
	logger   *zap.Logger
}

// NewReportingService creates a new reporting service. cache may be nil.
func NewReportingService(products *store.ProductStore, orders *store.OrderStore, cache SummaryCache) *ReportingService {
	return &ReportingService{
		products: products,
		orders:   orders,
		cache:    cache,
		logger:   util.GetLogger(),
	}
}

// Summary returns the sales summary, served from cache when warm.
func (s *ReportingService) Summary(ctx context.Context) (SalesSummary, error) {
	if s.cache != nil {
		if payload, err := s.cache.GetCachedSummary(ctx); err != nil {
			s.logger.Warn("Report cache read failed", zap.Error(err))
		} else if payload != nil {
			var cached SalesSummary
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		}
	}

	summary := s.compute()

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.CacheSummary(ctx, payload, summaryCacheTTL); err != nil {
				s.logger.Warn("Report cache write failed", zap.Error(err))
			}
		}
	}

	return summary, nil
}

// Customers returns per-customer aggregates, biggest spender first.
// Customers are keyed by the name typed at checkout; two spellings are
// two customers.
func (s *ReportingService) Customers() []CustomerSales {
	byName := map[string]*CustomerSales{}
	for _, order := range s.orders.Orders() {
		cs, ok := byName[order.CustomerName]
		if !ok {
			cs = &CustomerSales{Name: order.CustomerName}
			byName[order.CustomerName] = cs
		}
		cs.Orders++
		cs.TotalSpent += order.Total
		if order.Date.After(cs.LastOrder) {
			cs.LastOrder = order.Date
		}
	}

	customers := make([]CustomerSales, 0, len(byName))
	for _, cs := range byName {
		customers = append(customers, *cs)
	}
	sort.Slice(customers, func(i, j int) bool {
		if customers[i].TotalSpent != customers[j].TotalSpent {
			return customers[i].TotalSpent > customers[j].TotalSpent
		}
		return customers[i].Name < customers[j].Name
	})
	return customers
}

func (s *ReportingService) compute() SalesSummary {
	orders := s.orders.Orders()

	summary := SalesSummary{
		TotalOrders:   len(orders),
		TotalProducts: len(s.products.Products()),
		GeneratedAt:   time.Now().UTC(),
	}

	customers := map[string]bool{}
	sales := map[string]*ProductSales{}

	for _, order := range orders {
		summary.TotalRevenue += order.Total
		customers[order.CustomerName] = true

		for _, item := range order.Items {
			ps, ok := sales[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				sales[item.ProductID] = ps
			}
			ps.Cards += item.Quantity
			ps.Bottles += item.Quantity * item.BottlesPerCard
			ps.Revenue += item.TotalPrice
		}
	}

	summary.UniqueCustomers = len(customers)
	if summary.TotalOrders > 0 {
		summary.AvgOrderValue = summary.TotalRevenue / float64(summary.TotalOrders)
	}

	top := make([]ProductSales, 0, len(sales))
	for _, ps := range sales {
		top = append(top, *ps)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Bottles != top[j].Bottles {
			return top[i].Bottles > top[j].Bottles
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > 5 {
		top = top[:5]
	}
	summary.TopProducts = top

	return summary
}
