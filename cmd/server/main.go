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

	"backoffice-service/config"
	"backoffice-service/internal/api"
	"backoffice-service/internal/auth"
	"backoffice-service/internal/broker"
	"backoffice-service/internal/models"
	"backoffice-service/internal/redisclient"
	"backoffice-service/internal/reports"
	"backoffice-service/internal/service"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"
	"backoffice-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting back office service")

	tp, err := util.InitTracer("backoffice-service", cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer bootstrapCancel()

	if err := bootstrap(bootstrapCtx, db, redisClient, cfg); err != nil {
		log.Fatalf("Failed to bootstrap database: %v", err)
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStock)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	authManager := auth.NewManager(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, db)

	productService := service.NewProductService(db, redisClient)
	intakeService := service.NewIntakeService(db, redisClient, eventPublisher)
	saleService := service.NewSaleService(db, redisClient, eventPublisher)
	warehouseService := service.NewWarehouseService(db, redisClient, eventPublisher)
	customerService := service.NewCustomerService(db)
	expenseService := service.NewExpenseService(db, redisClient)
	dashboardService := service.NewDashboardService(db, redisClient)
	catalogService := service.NewCatalogService(db, eventPublisher)
	exporter := reports.NewExporter(db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	timelineConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStock, cfg.Kafka.ConsumerGroup)
	timelineWorker := worker.NewTimelineWorker(timelineConsumer, db)
	go func() {
		if err := timelineWorker.Start(workerCtx); err != nil {
			log.Printf("Timeline worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(db, authManager, productService, intakeService, saleService,
		warehouseService, customerService, expenseService, dashboardService, catalogService, exporter)
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
	timelineWorker.Stop()

	log.Println("Server exited")
}

// bootstrap applies the schema and seeds under a distributed lock so that
// replicas starting at the same time run it one at a time.
func bootstrap(ctx context.Context, db *store.Store, redisClient *redisclient.Client, cfg *config.Config) error {
	const lockKey = "bootstrap"
	for {
		acquired, err := redisClient.AcquireLock(ctx, lockKey, 60*time.Second)
		if err != nil {
			return err
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	defer func() {
		if err := redisClient.ReleaseLock(context.Background(), lockKey); err != nil {
			log.Printf("Failed to release bootstrap lock: %v", err)
		}
	}()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	return seed(ctx, db, cfg)
}

// seed creates the configured user accounts and a default warehouse so a
// fresh deployment is usable immediately. Existing rows are left untouched.
func seed(ctx context.Context, db *store.Store, cfg *config.Config) error {
	for _, u := range cfg.Seed.Users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return err
		}
		if err := db.EnsureUser(ctx, &models.User{
			Username:          u.Username,
			PasswordHash:      hash,
			FullName:          u.FullName,
			CanViewFinancials: u.CanViewFinancials,
		}); err != nil {
			return err
		}
	}

	return db.EnsureWarehouse(ctx, &models.Warehouse{
		Code:            "MAIN",
		Name:            "Main Warehouse",
		IsDefaultIntake: true,
	})
}
