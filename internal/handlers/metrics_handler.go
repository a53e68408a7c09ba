package handlers

import (
	"net/http"
	"strconv"

	"odl-backend/internal/services"
	"odl-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type MetricsHandler struct {
	Metrics *services.MetricsService

	defaultWindowDays int
}

func NewMetricsHandler(metricsSvc *services.MetricsService, defaultWindowDays int) *MetricsHandler {
	return &MetricsHandler{Metrics: metricsSvc, defaultWindowDays: defaultWindowDays}
}

func (h *MetricsHandler) OrderCycleTime(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	result, err := h.Metrics.OrderCycleTime(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// PartCycleStats aggregates per-department cycle time across every
// order of a part number. ?window_days=N restricts to a trailing
// window, 0 means all history; absent falls back to the configured
// default.
func (h *MetricsHandler) PartCycleStats(w http.ResponseWriter, r *http.Request) {
	partNumber := mux.Vars(r)["part_number"]

	windowDays := h.defaultWindowDays
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "window_days must be a non-negative integer", http.StatusBadRequest)
			return
		}
		windowDays = n
	}

	result, err := h.Metrics.PartCycleStats(r.Context(), partNumber, windowDays)
	if err != nil {
		http.Error(w, "Failed to compute part statistics", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
