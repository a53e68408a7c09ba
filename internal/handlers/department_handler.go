package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"odl-backend/internal/cache"
	"odl-backend/internal/models"
	"odl-backend/internal/repositories"
	"odl-backend/internal/services"
	"odl-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// Rosters change on every transition, so the cache window stays short.
const rosterCacheTTL = 15 * time.Second

type DepartmentHandler struct {
	Departments *repositories.DepartmentRepository
	Status      *services.StatusService
}

func NewDepartmentHandler(departments *repositories.DepartmentRepository, status *services.StatusService) *DepartmentHandler {
	return &DepartmentHandler{Departments: departments, Status: status}
}

func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Departments.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list departments", http.StatusInternalServerError)
		return
	}
	if departments == nil {
		departments = []*models.Department{}
	}
	utils.JSON(w, http.StatusOK, departments)
}

// Roster returns the orders currently inside a department, in dispatch
// order. Served from Redis when a fresh copy exists; transitions
// invalidate the key.
func (h *DepartmentHandler) Roster(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	cacheKey := fmt.Sprintf(cache.RosterKeyFmt, code)

	if data, ok := cache.GetCached(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	items, err := h.Status.ListResident(r.Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrUnknownDepartment) {
			http.Error(w, "Unknown department", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load roster", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*models.RosterItem{}
	}

	body, err := json.Marshal(items)
	if err != nil {
		http.Error(w, "Failed to encode roster", http.StatusInternalServerError)
		return
	}
	cache.SetCached(r.Context(), cacheKey, body, rosterCacheTTL)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
