package worker

import (
	"context"
	"log"

	"pos-service/internal/broker"
	"pos-service/internal/models"
)

// SalesRecorder folds completed orders into daily sales aggregates.
// Implemented by redisclient.Client.
type SalesRecorder interface {
	RecordSale(ctx context.Context, day string, total float64) error
	InvalidateSummary(ctx context.Context) error
}

// ReportWorker consumes order events and keeps the daily sales
// aggregates current.
type ReportWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	recorder     SalesRecorder
}

// NewReportWorker creates a new report worker.
func NewReportWorker(consumer *broker.Consumer, recorder SalesRecorder) *ReportWorker {
	w := &ReportWorker{
		consumer: consumer,
		recorder: recorder,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCompleted(w.handleOrderCompleted)
	eventHandler.OnStockDepleted(w.handleStockDepleted)
	w.eventHandler = eventHandler

	return w
}

func (w *ReportWorker) handleOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error {
	day := event.Date.UTC().Format("2006-01-02")
	if err := w.recorder.RecordSale(ctx, day, event.Total); err != nil {
		return err
	}
	if err := w.recorder.InvalidateSummary(ctx); err != nil {
		log.Printf("Failed to invalidate report cache: %v", err)
	}
	return nil
}

func (w *ReportWorker) handleStockDepleted(ctx context.Context, event *models.StockDepletedEvent) error {
	log.Printf("Stock depleted: product=%s (%s)", event.ProductID, event.ProductName)
	return nil
}

// Start starts the worker
func (w *ReportWorker) Start(ctx context.Context) error {
	log.Println("Starting report worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReportWorker) Stop() error {
	log.Println("Stopping report worker...")
	return w.consumer.Close()
}
