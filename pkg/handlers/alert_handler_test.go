package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/apperrors"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services"
)

type mockAlertService struct {
	CreateAlertsForInteractionsFunc func(ctx context.Context, um *models.UserMedication, results []models.InteractionResult) (int, error)
	ListAlertsFunc                  func(ctx context.Context, userID int64) ([]*models.InteractionAlert, error)
	MarkAlertReadFunc               func(ctx context.Context, userID int64, alertID int64) error
}

var _ services.InteractionAlertService = (*mockAlertService)(nil)

func (m *mockAlertService) CreateAlertsForInteractions(ctx context.Context, um *models.UserMedication, results []models.InteractionResult) (int, error) {
	if m.CreateAlertsForInteractionsFunc != nil {
		return m.CreateAlertsForInteractionsFunc(ctx, um, results)
	}
	return 0, nil
}

func (m *mockAlertService) ListAlerts(ctx context.Context, userID int64) ([]*models.InteractionAlert, error) {
	if m.ListAlertsFunc != nil {
		return m.ListAlertsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockAlertService) MarkAlertRead(ctx context.Context, userID int64, alertID int64) error {
	if m.MarkAlertReadFunc != nil {
		return m.MarkAlertReadFunc(ctx, userID, alertID)
	}
	return nil
}

func newAlertMux(svc services.InteractionAlertService) *http.ServeMux {
	logger := zap.NewNop()
	mux := http.NewServeMux()
	NewAlertHandler(svc, logger).RegisterRoutes(mux, RequireUser(logger))
	return mux
}

func TestListAlerts(t *testing.T) {
	svc := &mockAlertService{
		ListAlertsFunc: func(ctx context.Context, userID int64) ([]*models.InteractionAlert, error) {
			assert.Equal(t, int64(7), userID)
			return []*models.InteractionAlert{
				{ID: 1, UserID: 7, Severity: models.SeveritySevere, Description: "Bleeding risk."},
			}, nil
		},
	}
	mux := newAlertMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestListAlertsEmptyReturnsArray(t *testing.T) {
	mux := newAlertMux(&mockAlertService{})

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListAlertsRequiresUser(t *testing.T) {
	mux := newAlertMux(&mockAlertService{})

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMarkAlertRead(t *testing.T) {
	var gotAlertID int64
	svc := &mockAlertService{
		MarkAlertReadFunc: func(ctx context.Context, userID int64, alertID int64) error {
			gotAlertID = alertID
			return nil
		},
	}
	mux := newAlertMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/3/read", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), gotAlertID)
}

func TestMarkAlertReadNotFound(t *testing.T) {
	svc := &mockAlertService{
		MarkAlertReadFunc: func(ctx context.Context, userID int64, alertID int64) error {
			return apperrors.ErrNotFound
		},
	}
	mux := newAlertMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/3/read", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkAlertReadInvalidID(t *testing.T) {
	mux := newAlertMux(&mockAlertService{})

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/zero/read", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
