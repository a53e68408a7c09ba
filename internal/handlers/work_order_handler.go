package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"odl-backend/internal/models"
	"odl-backend/internal/qr"
	"odl-backend/internal/repositories"
	"odl-backend/internal/services"
	"odl-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type WorkOrderHandler struct {
	WorkOrders *repositories.WorkOrderRepository
	Status     *services.StatusService
	Metrics    *services.MetricsService
	Codec      *qr.Codec
}

func NewWorkOrderHandler(workOrders *repositories.WorkOrderRepository, status *services.StatusService, metricsSvc *services.MetricsService, codec *qr.Codec) *WorkOrderHandler {
	return &WorkOrderHandler{
		WorkOrders: workOrders,
		Status:     status,
		Metrics:    metricsSvc,
		Codec:      codec,
	}
}

func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWorkOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.OrderNumber == "" || req.PartNumber == "" {
		http.Error(w, "order_number and part_number are required", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if !models.ValidPriority(req.Priority) {
		http.Error(w, "priority must be LOW, NORMAL, HIGH or URGENT", http.StatusBadRequest)
		return
	}

	order := &models.WorkOrder{
		OrderNumber:   req.OrderNumber,
		PartNumber:    req.PartNumber,
		Quantity:      req.Quantity,
		Priority:      req.Priority,
		CurrentStatus: models.StatusNotStarted,
	}

	if err := h.WorkOrders.Create(r.Context(), order); err != nil {
		http.Error(w, "Failed to create work order", http.StatusInternalServerError)
		return
	}

	utils.JSON(w, http.StatusCreated, order)
}

func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.WorkOrders.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list work orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []*models.WorkOrder{}
	}
	utils.JSON(w, http.StatusOK, orders)
}

// Get returns the projected status, not the cached columns. The ledger
// is the authority even on the read path.
func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	status, err := h.Status.Project(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, status)
}

func (h *WorkOrderHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	events, err := h.Status.ListEvents(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if events == nil {
		events = []*models.ProductionEvent{}
	}
	utils.JSON(w, http.StatusOK, events)
}

func (h *WorkOrderHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	status, err := h.Status.Reconcile(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, status)
}

// QRCode streams the scannable code for an order as a PNG.
func (h *WorkOrderHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, err := h.WorkOrders.Get(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	token, err := h.Codec.Encode(order.OrderNumber, order.PartNumber)
	if err != nil {
		http.Error(w, "Failed to encode scan token", http.StatusInternalServerError)
		return
	}

	img, err := qr.QRImage(token, 300)
	if err != nil {
		http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// Label streams the printable A6 label PDF for an order.
func (h *WorkOrderHandler) Label(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, err := h.WorkOrders.Get(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	token, err := h.Codec.Encode(order.OrderNumber, order.PartNumber)
	if err != nil {
		http.Error(w, "Failed to encode scan token", http.StatusInternalServerError)
		return
	}

	pdf, err := qr.LabelPDF(order, token)
	if err != nil {
		http.Error(w, "Failed to render label", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=odl_%s_label.pdf", order.OrderNumber))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func orderID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid work order ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrOrderNotFound):
		http.Error(w, "Work order not found", http.StatusNotFound)
	case errors.Is(err, models.ErrUnknownDepartment):
		http.Error(w, "Unknown department", http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
