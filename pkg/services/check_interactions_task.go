package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/identity"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/notify"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/repositories"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services/workqueue"
)

// CheckInteractionsTask checks one newly added user medication against the
// user's other active medications. It is enqueued when a user medication is
// created and runs in the background under the queue's retry policy.
type CheckInteractionsTask struct {
	workqueue.BaseTask

	userMedicationID int64

	userMedRepo  repositories.UserMedicationRepository
	checker      InteractionChecker
	alertService InteractionAlertService
	notifier     notify.CheckNotifier
	logger       *zap.Logger

	medicationName string
	attemptedCount int
}

var _ workqueue.Task = (*CheckInteractionsTask)(nil)

func NewCheckInteractionsTask(
	userMedicationID int64,
	userMedRepo repositories.UserMedicationRepository,
	checker InteractionChecker,
	alertService InteractionAlertService,
	notifier notify.CheckNotifier,
	logger *zap.Logger,
) *CheckInteractionsTask {
	return &CheckInteractionsTask{
		BaseTask:         workqueue.NewBaseTask(fmt.Sprintf("check-interactions-%d", userMedicationID)),
		userMedicationID: userMedicationID,
		userMedRepo:      userMedRepo,
		checker:          checker,
		alertService:     alertService,
		notifier:         notifier,
		logger:           logger.Named("check_interactions"),
		medicationName:   "unknown",
	}
}

// Execute runs one attempt. Every failed attempt is reported before the
// error is returned to the queue, which decides whether to retry.
func (t *CheckInteractionsTask) Execute(ctx context.Context) error {
	err := t.run(ctx)
	if err != nil {
		t.notifier.CheckFailed(context.WithoutCancel(ctx), t.medicationName, err, t.attemptedCount)
	}
	return err
}

func (t *CheckInteractionsTask) run(ctx context.Context) error {
	um, err := t.userMedRepo.GetUnscoped(ctx, t.userMedicationID)
	if err != nil {
		return fmt.Errorf("failed to load user medication %d: %w", t.userMedicationID, err)
	}
	if um == nil {
		t.logger.Warn("User medication no longer exists, skipping check",
			zap.Int64("user_medication_id", t.userMedicationID))
		return nil
	}
	t.medicationName = um.MedicationName()

	if um.MedicationID == nil || um.Medication == nil {
		t.logger.Info("User medication has no linked medication, nothing to check",
			zap.Int64("user_medication_id", um.ID))
		return nil
	}
	if !um.Active {
		t.logger.Info("User medication deactivated before check ran, skipping",
			zap.Int64("user_medication_id", um.ID))
		return nil
	}

	ctx = identity.WithUserID(ctx, um.UserID)

	siblings, err := t.userMedRepo.ListActiveSiblingMedicationIDs(ctx, um.UserID, um.ID)
	if err != nil {
		return fmt.Errorf("failed to load active medications: %w", err)
	}
	if len(siblings) == 0 {
		t.logger.Info("No other active medications, nothing to check",
			zap.Int64("user_medication_id", um.ID),
			zap.Int64("user_id", um.UserID))
		return nil
	}

	unchecked, err := t.checker.FilterAlreadyChecked(ctx, *um.MedicationID, siblings)
	if err != nil {
		return err
	}
	t.attemptedCount = len(unchecked)
	if len(unchecked) == 0 {
		t.logger.Info("All medication pairs already checked",
			zap.Int64("user_medication_id", um.ID),
			zap.Int64("medication_id", *um.MedicationID))
		t.notifier.CheckSkipped(context.WithoutCancel(ctx), t.medicationName, "all pairs already checked")
		return nil
	}

	result, err := t.checker.CheckInteractions(ctx, um.Medication, unchecked)
	if err != nil {
		return err
	}

	if err := t.checker.PersistResults(ctx, *um.MedicationID, result.Interactions); err != nil {
		return err
	}

	alertsCreated, err := t.alertService.CreateAlertsForInteractions(ctx, um, result.Interactions)
	if err != nil {
		return err
	}

	metrics := &models.InteractionCheckMetrics{
		MedicationName: um.Medication.Name,
		CheckedCount:   len(unchecked),
		FoundCount:     result.FoundCount(),
		SevereCount:    result.CountBySeverity(models.SeveritySevere),
		ModerateCount:  result.CountBySeverity(models.SeverityModerate),
		AlertsCreated:  alertsCreated,
		TokenUsage:     result.TokenUsage,
		Duration:       result.Duration,
		Model:          result.Model,
	}
	t.notifier.CheckCompleted(context.WithoutCancel(ctx), metrics)

	t.logger.Info("Interaction check completed",
		zap.Int64("user_medication_id", um.ID),
		zap.Int64("medication_id", *um.MedicationID),
		zap.Int("checked", metrics.CheckedCount),
		zap.Int("found", metrics.FoundCount),
		zap.Int("alerts_created", metrics.AlertsCreated),
		zap.Duration("duration", metrics.Duration))

	return nil
}
