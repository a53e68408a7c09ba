package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"odl-backend/internal/metrics"
	"odl-backend/internal/middleware"
	"odl-backend/internal/models"
	"odl-backend/internal/qr"
	"odl-backend/internal/services"
	"odl-backend/pkg/utils"
)

type ScanHandler struct {
	ScanService *services.ScanService
}

func NewScanHandler(scanService *services.ScanService) *ScanHandler {
	return &ScanHandler{ScanService: scanService}
}

// ProcessScan handles POST /api/scans: one QR scan, one transition
// attempt. Every rejection carries a machine-readable reason.
func (h *ScanHandler) ProcessScan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, models.ReasonMalformedToken, "Invalid request body")
		return
	}
	if req.Token == "" {
		utils.Error(w, http.StatusBadRequest, models.ReasonMalformedToken, "Token is required")
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Actor identity not found in context", http.StatusUnauthorized)
		return
	}

	resp, err := h.ScanService.ProcessScan(r.Context(), &req, actorID)
	if err != nil {
		status, reason := scanRejection(err)
		metrics.ScansTotal.WithLabelValues("rejected", reason).Inc()
		utils.JSON(w, status, &models.ScanResponse{
			Status: "rejected",
			Reason: reason,
		})
		return
	}

	metrics.ScansTotal.WithLabelValues("accepted", "").Inc()
	utils.JSON(w, http.StatusOK, resp)
}

// scanRejection maps pipeline errors to an HTTP status and the reason
// string driving the operator UI message.
func scanRejection(err error) (int, string) {
	switch {
	case errors.Is(err, qr.ErrMalformedToken):
		return http.StatusBadRequest, models.ReasonMalformedToken
	case errors.Is(err, qr.ErrBadSignature):
		return http.StatusBadRequest, models.ReasonBadSignature
	case errors.Is(err, models.ErrDuplicateScan):
		return http.StatusConflict, models.ReasonDuplicate
	case errors.Is(err, models.ErrRateExceeded):
		return http.StatusTooManyRequests, models.ReasonRateExceeded
	case errors.Is(err, models.ErrOrderNotFound):
		return http.StatusNotFound, models.ReasonUnknownOrder
	case errors.Is(err, models.ErrUnknownDepartment):
		return http.StatusNotFound, models.ReasonUnknownDept
	case errors.Is(err, models.ErrNoMatchingEntry):
		return http.StatusConflict, models.ReasonNoMatchingEntry
	case errors.Is(err, models.ErrIllegalSuccessor):
		return http.StatusConflict, models.ReasonIllegalMove
	case errors.Is(err, models.ErrAlreadyCompleted):
		return http.StatusConflict, models.ReasonCompleted
	case errors.Is(err, models.ErrStaleAppend):
		// Unknown outcome for the caller: re-check projected status
		// before retrying the scan.
		return http.StatusConflict, models.ReasonIllegalMove
	default:
		return http.StatusServiceUnavailable, models.ReasonPersistence
	}
}
