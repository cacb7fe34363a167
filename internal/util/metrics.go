package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_completed_total",
		Help: "Total number of completed checkouts",
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_deleted_total",
		Help: "Total number of orders deleted by an admin",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_checkout_latency_seconds",
		Help:    "Latency of the checkout workflow",
		Buckets: prometheus.DefBuckets,
	})

	CartAddsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_cart_adds_total",
		Help: "Total number of add-to-cart operations",
	})

	StockDepletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_stock_depleted_total",
		Help: "Total number of times a checkout drove a product's stock to zero",
	})

	ChangeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_change_events_total",
		Help: "Total number of remote change events received",
	}, []string{"table"})

	AdminLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_admin_logins_total",
		Help: "Total number of admin passphrase attempts",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
