package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"odl-backend/internal/handlers"
	"odl-backend/internal/middleware"
)

func NewRouter(
	scanHandler *handlers.ScanHandler,
	workOrderHandler *handlers.WorkOrderHandler,
	departmentHandler *handlers.DepartmentHandler,
	metricsHandler *handlers.MetricsHandler,
	eventStreamHandler *handlers.EventStreamHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Protected API routes - Scans (the hot path)
	scansAPI := r.PathPrefix("/api/scans").Subrouter()
	scansAPI.Use(authMiddleware.Authenticate)
	scansAPI.HandleFunc("", scanHandler.ProcessScan).Methods("POST")

	// Protected API routes - Work Orders
	ordersAPI := r.PathPrefix("/api/work-orders").Subrouter()
	ordersAPI.Use(authMiddleware.Authenticate)
	ordersAPI.HandleFunc("", workOrderHandler.List).Methods("GET")
	ordersAPI.HandleFunc("", workOrderHandler.Create).Methods("POST")
	ordersAPI.HandleFunc("/{id}", workOrderHandler.Get).Methods("GET")
	ordersAPI.HandleFunc("/{id}/events", workOrderHandler.Events).Methods("GET")
	ordersAPI.HandleFunc("/{id}/reconcile", workOrderHandler.Reconcile).Methods("POST")
	ordersAPI.HandleFunc("/{id}/qr", workOrderHandler.QRCode).Methods("GET")
	ordersAPI.HandleFunc("/{id}/label", workOrderHandler.Label).Methods("GET")

	// Protected API routes - Departments
	departmentsAPI := r.PathPrefix("/api/departments").Subrouter()
	departmentsAPI.Use(authMiddleware.Authenticate)
	departmentsAPI.HandleFunc("", departmentHandler.List).Methods("GET")
	departmentsAPI.HandleFunc("/{code}/roster", departmentHandler.Roster).Methods("GET")

	// Protected API routes - Time metrics
	timeMetricsAPI := r.PathPrefix("/api/metrics").Subrouter()
	timeMetricsAPI.Use(authMiddleware.Authenticate)
	timeMetricsAPI.HandleFunc("/orders/{id}/cycle-time", metricsHandler.OrderCycleTime).Methods("GET")
	timeMetricsAPI.HandleFunc("/parts/{part_number}", metricsHandler.PartCycleStats).Methods("GET")

	// Live event feed for dashboards (token is checked on upgrade)
	streamAPI := r.PathPrefix("/api/events").Subrouter()
	streamAPI.Use(authMiddleware.Authenticate)
	streamAPI.HandleFunc("/stream", eventStreamHandler.Stream).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.Basic).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.Detailed).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
