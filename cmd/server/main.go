package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"odl-backend/internal/auth"
	"odl-backend/internal/cache"
	"odl-backend/internal/config"
	"odl-backend/internal/database"
	"odl-backend/internal/db"
	"odl-backend/internal/handlers"
	"odl-backend/internal/health"
	h "odl-backend/internal/http"
	"odl-backend/internal/middleware"
	"odl-backend/internal/qr"
	"odl-backend/internal/repositories"
	"odl-backend/internal/services"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis is optional: the scan guard falls back to in-process state
	// and rosters are served straight from Postgres
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (scan guard runs in-process)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations on startup
	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecker := health.NewHealthChecker(pool)
	jwtManager := auth.NewJWTManager(cfg)
	codec := qr.NewCodec(cfg)

	// Repositories
	workOrderRepo := repositories.NewWorkOrderRepository(pool)
	departmentRepo := repositories.NewDepartmentRepository(pool)
	eventRepo := repositories.NewProductionEventRepository(pool)

	// Services
	guard := services.NewScanGuard(
		time.Duration(cfg.ScanGuard.DuplicateWindowSeconds)*time.Second,
		cfg.ScanGuard.RatePerMinute,
	)
	transitionService := services.NewTransitionService(eventRepo, workOrderRepo, departmentRepo)
	statusService := services.NewStatusService(eventRepo, workOrderRepo, departmentRepo)
	metricsService := services.NewMetricsService(eventRepo, workOrderRepo)
	scanService := services.NewScanService(codec, guard, transitionService, statusService, eventRepo, workOrderRepo, departmentRepo)

	// Handlers
	eventStreamHandler := handlers.NewEventStreamHandler()
	transitionService.SetEventSink(eventStreamHandler)

	scanHandler := handlers.NewScanHandler(scanService)
	workOrderHandler := handlers.NewWorkOrderHandler(workOrderRepo, statusService, metricsService, codec)
	departmentHandler := handlers.NewDepartmentHandler(departmentRepo, statusService)
	metricsHandler := handlers.NewMetricsHandler(metricsService, cfg.Metrics.DefaultWindowDays)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	corsMiddleware := middleware.NewCORS(cfg)

	router := h.NewRouter(
		scanHandler,
		workOrderHandler,
		departmentHandler,
		metricsHandler,
		eventStreamHandler,
		healthHandler,
		authMiddleware,
	)

	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
