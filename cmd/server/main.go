package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-service/config"
	"pos-service/internal/api"
	"pos-service/internal/auth"
	"pos-service/internal/broker"
	"pos-service/internal/cart"
	"pos-service/internal/persist"
	"pos-service/internal/redisclient"
	"pos-service/internal/service"
	"pos-service/internal/store"
	"pos-service/internal/util"
	"pos-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting POS service")

	tp, err := util.InitTracer("pos-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	// One capability check at boot picks the backend for the process
	// lifetime: remote row store when real credentials exist, the local
	// embedded database otherwise.
	var (
		adapter     persist.Adapter
		redisClient *redisclient.Client
	)
	if cfg.Database.UseRemote() {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")

		pg, err := persist.NewPostgres(cfg.Database.URL, redisClient)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		adapter = pg
		log.Println("Remote database connected")
	} else {
		lite, err := persist.NewSQLite(cfg.Database.LocalPath)
		if err != nil {
			log.Fatalf("Failed to open local database: %v", err)
		}
		defer lite.Close()
		adapter = lite
		log.Printf("Local database open: %s", cfg.Database.LocalPath)

		if rc, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err == nil {
			redisClient = rc
			defer redisClient.Close()
			log.Println("Redis connected (report cache)")
		} else {
			log.Printf("Redis unavailable, report caching disabled: %v", err)
		}
	}

	productStore := store.NewProductStore(adapter)
	orderStore := store.NewOrderStore(adapter)
	categoryStore := store.NewCategoryStore(adapter)
	cardTypeStore := store.NewCardTypeStore(adapter)

	ctx := context.Background()
	if err := productStore.FetchAll(ctx); err != nil {
		log.Printf("Initial product fetch failed: %v", err)
	}
	if err := orderStore.FetchAll(ctx); err != nil {
		log.Printf("Initial order fetch failed: %v", err)
	}
	if err := categoryStore.FetchAll(ctx); err != nil {
		log.Printf("Initial category fetch failed: %v", err)
	}
	if err := cardTypeStore.FetchAll(ctx); err != nil {
		log.Printf("Initial card type fetch failed: %v", err)
	}

	for _, sub := range []func() (func(), error){
		productStore.SubscribeToChanges,
		orderStore.SubscribeToChanges,
		categoryStore.SubscribeToChanges,
		cardTypeStore.SubscribeToChanges,
	} {
		unsubscribe, err := sub()
		if err != nil {
			log.Printf("Change subscription failed: %v", err)
			continue
		}
		defer unsubscribe()
	}

	publisher := service.NewNopPublisher()
	var producer *broker.Producer
	if cfg.Kafka.Enabled() {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		log.Println("Kafka producer initialized")
	}

	cartManager := cart.NewManager(productStore)
	checkoutService := service.NewCheckoutService(productStore, orderStore, publisher)

	var summaryCache service.SummaryCache
	if redisClient != nil {
		summaryCache = redisClient
	}
	reportingService := service.NewReportingService(productStore, orderStore, summaryCache)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var reportWorker *worker.ReportWorker
	if cfg.Kafka.Enabled() && redisClient != nil {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		reportWorker = worker.NewReportWorker(consumer, redisClient)
		go func() {
			if err := reportWorker.Start(workerCtx); err != nil {
				log.Printf("Report worker error: %v", err)
			}
		}()
	}

	gate := auth.NewGate(cfg.Admin.Passphrase, cfg.Admin.SessionTTL)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(productStore, orderStore, categoryStore, cardTypeStore,
		cartManager, checkoutService, reportingService, gate)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if reportWorker != nil {
		reportWorker.Stop()
	}

	log.Println("Server exited")
}
