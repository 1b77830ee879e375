package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/apperrors"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/repositories"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services/workqueue"
)

// TaskEnqueuer accepts background tasks for execution.
type TaskEnqueuer interface {
	Enqueue(task workqueue.Task)
}

// CheckTaskFactory builds the background check task for a user medication.
type CheckTaskFactory func(userMedicationID int64) workqueue.Task

// CreateUserMedicationInput is the payload for adding a medication to a
// user's list.
type CreateUserMedicationInput struct {
	MedicationID        *int64 `json:"medication_id"`
	Dosage              string `json:"dosage"`
	Schedule            string `json:"schedule"`
	StockQuantity       int    `json:"stock_quantity"`
	StockAlertThreshold int    `json:"stock_alert_threshold"`
}

// UserMedicationService manages a user's medication list. Creating an entry
// with a linked medication queues an interaction check in the background.
type UserMedicationService interface {
	Create(ctx context.Context, userID int64, input CreateUserMedicationInput) (*models.UserMedication, error)
	Get(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
	Deactivate(ctx context.Context, userID int64, id int64) error
	RecordDose(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
}

type userMedicationService struct {
	userMedRepo    repositories.UserMedicationRepository
	medicationRepo repositories.MedicationRepository
	queue          TaskEnqueuer
	newCheckTask   CheckTaskFactory
	logger         *zap.Logger
}

func NewUserMedicationService(
	userMedRepo repositories.UserMedicationRepository,
	medicationRepo repositories.MedicationRepository,
	queue TaskEnqueuer,
	newCheckTask CheckTaskFactory,
	logger *zap.Logger,
) UserMedicationService {
	return &userMedicationService{
		userMedRepo:    userMedRepo,
		medicationRepo: medicationRepo,
		queue:          queue,
		newCheckTask:   newCheckTask,
		logger:         logger.Named("user_medications"),
	}
}

var _ UserMedicationService = (*userMedicationService)(nil)

func (s *userMedicationService) Create(ctx context.Context, userID int64, input CreateUserMedicationInput) (*models.UserMedication, error) {
	um := &models.UserMedication{
		UserID:              userID,
		MedicationID:        input.MedicationID,
		Dosage:              input.Dosage,
		Schedule:            input.Schedule,
		Active:              true,
		StockQuantity:       input.StockQuantity,
		StockAlertThreshold: input.StockAlertThreshold,
	}

	if input.MedicationID != nil {
		med, err := s.medicationRepo.GetByID(ctx, *input.MedicationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load medication %d: %w", *input.MedicationID, err)
		}
		if med == nil {
			return nil, fmt.Errorf("medication %d: %w", *input.MedicationID, apperrors.ErrNotFound)
		}
		um.Medication = med
	}

	if err := s.userMedRepo.Create(ctx, um); err != nil {
		return nil, err
	}

	// The interaction check runs out of band: the create call returns
	// immediately and the check reports through alerts and monitoring.
	if um.MedicationID != nil {
		task := s.newCheckTask(um.ID)
		s.queue.Enqueue(task)
		s.logger.Info("Queued interaction check",
			zap.Int64("user_medication_id", um.ID),
			zap.Int64("medication_id", *um.MedicationID),
			zap.String("task_id", task.ID()))
	}

	return um, nil
}

func (s *userMedicationService) Get(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	return s.userMedRepo.GetForUser(ctx, userID, id)
}

func (s *userMedicationService) Deactivate(ctx context.Context, userID int64, id int64) error {
	if err := s.userMedRepo.SetActive(ctx, userID, id, false); err != nil {
		return err
	}

	s.logger.Info("User medication deactivated",
		zap.Int64("user_id", userID),
		zap.Int64("user_medication_id", id))
	return nil
}

func (s *userMedicationService) RecordDose(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	um, err := s.userMedRepo.DecrementStock(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if um.LowStock() {
		s.logger.Warn("Medication stock below alert threshold",
			zap.Int64("user_id", userID),
			zap.Int64("user_medication_id", id),
			zap.Int("stock_quantity", um.StockQuantity),
			zap.Int("threshold", um.StockAlertThreshold))
	}

	return um, nil
}
