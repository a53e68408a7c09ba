package handlers

import (
	"net/http"

	"odl-backend/internal/health"
	"odl-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) Basic(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic()

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

// Ready gates rollout traffic on the database only; Redis is optional.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic()

	if status.Database.Status != "healthy" {
		utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckDetailed()

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}
