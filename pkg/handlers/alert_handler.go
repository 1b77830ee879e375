package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/apperrors"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/identity"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services"
)

// AlertHandler handles interaction alert HTTP requests.
type AlertHandler struct {
	alertService services.InteractionAlertService
	logger       *zap.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(alertService services.InteractionAlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// RegisterRoutes registers the alert handler's routes on the given mux.
func (h *AlertHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/alerts", requireUser(h.ListAlerts))
	mux.HandleFunc("POST /api/alerts/{alert_id}/read", requireUser(h.MarkRead))
}

// ListAlerts handles GET /api/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in context"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	alerts, err := h.alertService.ListAlerts(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_alerts_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if alerts == nil {
		alerts = make([]*models.InteractionAlert, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    alerts,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// MarkRead handles POST /api/alerts/{alert_id}/read
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in context"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	alertID, err := strconv.ParseInt(r.PathValue("alert_id"), 10, 64)
	if err != nil || alertID <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_alert_id", "Invalid alert ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.alertService.MarkAlertRead(r.Context(), userID, alertID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Alert not found or already read"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to mark alert read", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "mark_read_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Alert marked as read",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
