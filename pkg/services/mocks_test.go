package services

import (
	"context"
	"sync"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/repositories"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services/workqueue"
)

// Function-field mocks: tests set only the functions they need.

type mockMedicationRepo struct {
	GetByIDFunc  func(ctx context.Context, id int64) (*models.Medication, error)
	GetByIDsFunc func(ctx context.Context, ids []int64) ([]*models.Medication, error)
}

var _ repositories.MedicationRepository = (*mockMedicationRepo)(nil)

func (m *mockMedicationRepo) GetByID(ctx context.Context, id int64) (*models.Medication, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockMedicationRepo) GetByIDs(ctx context.Context, ids []int64) ([]*models.Medication, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return nil, nil
}

type mockUserMedicationRepo struct {
	CreateFunc                         func(ctx context.Context, um *models.UserMedication) error
	GetUnscopedFunc                    func(ctx context.Context, id int64) (*models.UserMedication, error)
	GetForUserFunc                     func(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
	ListActiveSiblingMedicationIDsFunc func(ctx context.Context, userID int64, excludeUserMedicationID int64) ([]int64, error)
	SetActiveFunc                      func(ctx context.Context, userID int64, id int64, active bool) error
	DecrementStockFunc                 func(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
}

var _ repositories.UserMedicationRepository = (*mockUserMedicationRepo)(nil)

func (m *mockUserMedicationRepo) Create(ctx context.Context, um *models.UserMedication) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, um)
	}
	return nil
}

func (m *mockUserMedicationRepo) GetUnscoped(ctx context.Context, id int64) (*models.UserMedication, error) {
	if m.GetUnscopedFunc != nil {
		return m.GetUnscopedFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserMedicationRepo) GetForUser(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	if m.GetForUserFunc != nil {
		return m.GetForUserFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockUserMedicationRepo) ListActiveSiblingMedicationIDs(ctx context.Context, userID int64, excludeUserMedicationID int64) ([]int64, error) {
	if m.ListActiveSiblingMedicationIDsFunc != nil {
		return m.ListActiveSiblingMedicationIDsFunc(ctx, userID, excludeUserMedicationID)
	}
	return nil, nil
}

func (m *mockUserMedicationRepo) SetActive(ctx context.Context, userID int64, id int64, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, userID, id, active)
	}
	return nil
}

func (m *mockUserMedicationRepo) DecrementStock(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	if m.DecrementStockFunc != nil {
		return m.DecrementStockFunc(ctx, userID, id)
	}
	return nil, nil
}

type mockInteractionRepo struct {
	ListCheckedMedicationIDsFunc func(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error)
	CreateBidirectionalFunc      func(ctx context.Context, medicationID int64, results []models.InteractionResult) error
	GetByPairFunc                func(ctx context.Context, medicationID int64, interactsWithID int64) (*models.MedicationInteraction, error)
}

var _ repositories.InteractionRepository = (*mockInteractionRepo)(nil)

func (m *mockInteractionRepo) ListCheckedMedicationIDs(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error) {
	if m.ListCheckedMedicationIDsFunc != nil {
		return m.ListCheckedMedicationIDsFunc(ctx, medicationID, candidateIDs)
	}
	return nil, nil
}

func (m *mockInteractionRepo) CreateBidirectional(ctx context.Context, medicationID int64, results []models.InteractionResult) error {
	if m.CreateBidirectionalFunc != nil {
		return m.CreateBidirectionalFunc(ctx, medicationID, results)
	}
	return nil
}

func (m *mockInteractionRepo) GetByPair(ctx context.Context, medicationID int64, interactsWithID int64) (*models.MedicationInteraction, error) {
	if m.GetByPairFunc != nil {
		return m.GetByPairFunc(ctx, medicationID, interactsWithID)
	}
	return nil, nil
}

type mockAlertRepo struct {
	mu      sync.Mutex
	created []*models.InteractionAlert

	CreateFunc     func(ctx context.Context, alert *models.InteractionAlert) error
	ListByUserFunc func(ctx context.Context, userID int64) ([]*models.InteractionAlert, error)
	MarkReadFunc   func(ctx context.Context, userID int64, alertID int64) error
}

var _ repositories.InteractionAlertRepository = (*mockAlertRepo)(nil)

func (m *mockAlertRepo) Create(ctx context.Context, alert *models.InteractionAlert) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, alert)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	alert.ID = int64(len(m.created) + 1)
	m.created = append(m.created, alert)
	return nil
}

func (m *mockAlertRepo) ListByUser(ctx context.Context, userID int64) ([]*models.InteractionAlert, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.InteractionAlert(nil), m.created...), nil
}

func (m *mockAlertRepo) MarkRead(ctx context.Context, userID int64, alertID int64) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, alertID)
	}
	return nil
}

func (m *mockAlertRepo) Created() []*models.InteractionAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.InteractionAlert(nil), m.created...)
}

// recordingNotifier captures notification calls for assertions.
type recordingNotifier struct {
	mu sync.Mutex

	Completed []*models.InteractionCheckMetrics
	Failed    []failedNotification
	Skipped   []string
}

type failedNotification struct {
	MedicationName string
	AttemptedCount int
}

func (n *recordingNotifier) CheckCompleted(ctx context.Context, metrics *models.InteractionCheckMetrics) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Completed = append(n.Completed, metrics)
}

func (n *recordingNotifier) CheckFailed(ctx context.Context, medicationName string, checkErr error, attemptedCount int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Failed = append(n.Failed, failedNotification{MedicationName: medicationName, AttemptedCount: attemptedCount})
}

func (n *recordingNotifier) CheckSkipped(ctx context.Context, medicationName string, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Skipped = append(n.Skipped, reason)
}

// recordingEnqueuer captures enqueued tasks without running them.
type recordingEnqueuer struct {
	tasks []workqueue.Task
}

func (e *recordingEnqueuer) Enqueue(task workqueue.Task) {
	e.tasks = append(e.tasks, task)
}
