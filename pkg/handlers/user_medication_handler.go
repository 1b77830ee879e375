package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/apperrors"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/identity"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services"
)

// UserMedicationHandler handles user medication HTTP requests.
type UserMedicationHandler struct {
	userMedicationService services.UserMedicationService
	logger                *zap.Logger
}

// NewUserMedicationHandler creates a new user medication handler.
func NewUserMedicationHandler(userMedicationService services.UserMedicationService, logger *zap.Logger) *UserMedicationHandler {
	return &UserMedicationHandler{
		userMedicationService: userMedicationService,
		logger:                logger,
	}
}

// RegisterRoutes registers the user medication handler's routes on the given mux.
func (h *UserMedicationHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/user-medications", requireUser(h.Create))
	mux.HandleFunc("GET /api/user-medications/{id}", requireUser(h.Get))
	mux.HandleFunc("DELETE /api/user-medications/{id}", requireUser(h.Deactivate))
	mux.HandleFunc("POST /api/user-medications/{id}/doses", requireUser(h.RecordDose))
}

// Create handles POST /api/user-medications.
// Adds a medication to the caller's list and queues the interaction check.
func (h *UserMedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in context"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var input services.CreateUserMedicationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	um, err := h.userMedicationService.Create(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "medication_not_found", "Medication does not exist"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create user medication", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "create_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    um,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/user-medications/{id}
func (h *UserMedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	um, err := h.userMedicationService.Get(r.Context(), userID, id)
	if err != nil {
		h.logger.Error("Failed to get user medication", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if um == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User medication not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: um}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Deactivate handles DELETE /api/user-medications/{id}
func (h *UserMedicationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	if err := h.userMedicationService.Deactivate(r.Context(), userID, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User medication not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to deactivate user medication", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "deactivate_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "User medication deactivated",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RecordDose handles POST /api/user-medications/{id}/doses
func (h *UserMedicationHandler) RecordDose(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	um, err := h.userMedicationService.RecordDose(r.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User medication not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrOutOfStock):
			if err := ErrorResponse(w, http.StatusConflict, "out_of_stock", "No stock remaining"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrInactiveMedication):
			if err := ErrorResponse(w, http.StatusConflict, "inactive_medication", "User medication is inactive"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to record dose", zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "record_dose_failed", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: um}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *UserMedicationHandler) parseIDs(w http.ResponseWriter, r *http.Request) (userID int64, id int64, ok bool) {
	userID, found := identity.UserIDFromContext(r.Context())
	if !found {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in context"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, 0, false
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid user medication ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, 0, false
	}

	return userID, id, true
}
