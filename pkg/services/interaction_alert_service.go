package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/identity"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/repositories"
)

// InteractionAlertService turns check results into user-facing alerts.
type InteractionAlertService interface {
	// CreateAlertsForInteractions creates one alert per result that reports a
	// real interaction. Results with has_interaction=false are skipped.
	// Returns the number of alerts created.
	CreateAlertsForInteractions(ctx context.Context, um *models.UserMedication, results []models.InteractionResult) (int, error)

	// ListAlerts returns the user's alerts, newest first.
	ListAlerts(ctx context.Context, userID int64) ([]*models.InteractionAlert, error)

	// MarkAlertRead marks an unread alert as read.
	MarkAlertRead(ctx context.Context, userID int64, alertID int64) error
}

type interactionAlertService struct {
	alertRepo repositories.InteractionAlertRepository
	logger    *zap.Logger
}

func NewInteractionAlertService(alertRepo repositories.InteractionAlertRepository, logger *zap.Logger) InteractionAlertService {
	return &interactionAlertService{
		alertRepo: alertRepo,
		logger:    logger.Named("interaction_alerts"),
	}
}

var _ InteractionAlertService = (*interactionAlertService)(nil)

func (s *interactionAlertService) CreateAlertsForInteractions(ctx context.Context, um *models.UserMedication, results []models.InteractionResult) (int, error) {
	userID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		userID = um.UserID
	}

	created := 0
	for _, res := range results {
		if !res.HasInteraction {
			continue
		}

		alert := &models.InteractionAlert{
			UserID:           userID,
			UserMedicationID: um.ID,
			MedicationID:     res.MedicationID,
			Severity:         res.Severity,
			Description:      res.Description,
		}
		if err := s.alertRepo.Create(ctx, alert); err != nil {
			return created, fmt.Errorf("failed to create alert for medication %d: %w", res.MedicationID, err)
		}
		created++

		s.logger.Info("Interaction alert created",
			zap.Int64("user_id", userID),
			zap.Int64("user_medication_id", um.ID),
			zap.Int64("medication_id", res.MedicationID),
			zap.String("severity", string(res.Severity)))
	}

	return created, nil
}

func (s *interactionAlertService) ListAlerts(ctx context.Context, userID int64) ([]*models.InteractionAlert, error) {
	return s.alertRepo.ListByUser(ctx, userID)
}

func (s *interactionAlertService) MarkAlertRead(ctx context.Context, userID int64, alertID int64) error {
	return s.alertRepo.MarkRead(ctx, userID, alertID)
}
