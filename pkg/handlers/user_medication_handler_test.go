package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/apperrors"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services"
)

type mockUserMedicationService struct {
	CreateFunc     func(ctx context.Context, userID int64, input services.CreateUserMedicationInput) (*models.UserMedication, error)
	GetFunc        func(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
	DeactivateFunc func(ctx context.Context, userID int64, id int64) error
	RecordDoseFunc func(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
}

var _ services.UserMedicationService = (*mockUserMedicationService)(nil)

func (m *mockUserMedicationService) Create(ctx context.Context, userID int64, input services.CreateUserMedicationInput) (*models.UserMedication, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockUserMedicationService) Get(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockUserMedicationService) Deactivate(ctx context.Context, userID int64, id int64) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, userID, id)
	}
	return nil
}

func (m *mockUserMedicationService) RecordDose(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	if m.RecordDoseFunc != nil {
		return m.RecordDoseFunc(ctx, userID, id)
	}
	return nil, nil
}

func newUserMedicationMux(svc services.UserMedicationService) *http.ServeMux {
	logger := zap.NewNop()
	mux := http.NewServeMux()
	NewUserMedicationHandler(svc, logger).RegisterRoutes(mux, RequireUser(logger))
	return mux
}

func TestCreateUserMedication(t *testing.T) {
	var gotUserID int64
	var gotInput services.CreateUserMedicationInput
	svc := &mockUserMedicationService{
		CreateFunc: func(ctx context.Context, userID int64, input services.CreateUserMedicationInput) (*models.UserMedication, error) {
			gotUserID = userID
			gotInput = input
			return &models.UserMedication{ID: 10, UserID: userID, MedicationID: input.MedicationID, Active: true}, nil
		},
	}
	mux := newUserMedicationMux(svc)

	body := `{"medication_id":1,"dosage":"5mg","schedule":"daily","stock_quantity":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/user-medications", strings.NewReader(body))
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), gotUserID)
	require.NotNil(t, gotInput.MedicationID)
	assert.Equal(t, int64(1), *gotInput.MedicationID)
	assert.Equal(t, "5mg", gotInput.Dosage)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestCreateUserMedicationRequiresUser(t *testing.T) {
	mux := newUserMedicationMux(&mockUserMedicationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/user-medications", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateUserMedicationInvalidUserHeader(t *testing.T) {
	mux := newUserMedicationMux(&mockUserMedicationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/user-medications", strings.NewReader(`{}`))
	req.Header.Set("X-User-ID", "not-a-number")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateUserMedicationUnknownMedication(t *testing.T) {
	svc := &mockUserMedicationService{
		CreateFunc: func(ctx context.Context, userID int64, input services.CreateUserMedicationInput) (*models.UserMedication, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	mux := newUserMedicationMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/user-medications", strings.NewReader(`{"medication_id":99}`))
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUserMedicationInvalidBody(t *testing.T) {
	mux := newUserMedicationMux(&mockUserMedicationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/user-medications", strings.NewReader(`{not json`))
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserMedicationNotFound(t *testing.T) {
	mux := newUserMedicationMux(&mockUserMedicationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/user-medications/5", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeactivateUserMedication(t *testing.T) {
	var gotID int64
	svc := &mockUserMedicationService{
		DeactivateFunc: func(ctx context.Context, userID int64, id int64) error {
			gotID = id
			return nil
		},
	}
	mux := newUserMedicationMux(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/user-medications/5", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), gotID)
}

func TestDeactivateUserMedicationInvalidID(t *testing.T) {
	mux := newUserMedicationMux(&mockUserMedicationService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/user-medications/abc", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordDoseOutOfStock(t *testing.T) {
	svc := &mockUserMedicationService{
		RecordDoseFunc: func(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
			return nil, apperrors.ErrOutOfStock
		},
	}
	mux := newUserMedicationMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/user-medications/5/doses", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRecordDose(t *testing.T) {
	svc := &mockUserMedicationService{
		RecordDoseFunc: func(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
			return &models.UserMedication{ID: id, UserID: userID, StockQuantity: 29}, nil
		},
	}
	mux := newUserMedicationMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/user-medications/5/doses", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
