package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/apperrors"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/database"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
)

// InteractionAlertRepository provides data access for interaction alerts.
type InteractionAlertRepository interface {
	Create(ctx context.Context, alert *models.InteractionAlert) error
	ListByUser(ctx context.Context, userID int64) ([]*models.InteractionAlert, error)
	MarkRead(ctx context.Context, userID int64, alertID int64) error
}

type interactionAlertRepository struct {
	db *database.DB
}

func NewInteractionAlertRepository(db *database.DB) InteractionAlertRepository {
	return &interactionAlertRepository{db: db}
}

var _ InteractionAlertRepository = (*interactionAlertRepository)(nil)

func (r *interactionAlertRepository) Create(ctx context.Context, alert *models.InteractionAlert) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO interaction_alerts (
			user_id, user_medication_id, medication_id, severity, description
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		alert.UserID, alert.UserMedicationID, alert.MedicationID, alert.Severity, alert.Description,
	).Scan(&alert.ID, &alert.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create interaction alert: %w", err)
	}

	return nil
}

func (r *interactionAlertRepository) ListByUser(ctx context.Context, userID int64) ([]*models.InteractionAlert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, user_medication_id, medication_id, severity, description, read_at, created_at
		FROM interaction_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interaction alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.InteractionAlert
	for rows.Next() {
		alert := &models.InteractionAlert{}
		err := rows.Scan(
			&alert.ID, &alert.UserID, &alert.UserMedicationID, &alert.MedicationID,
			&alert.Severity, &alert.Description, &alert.ReadAt, &alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interaction alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interaction alerts: %w", err)
	}

	return alerts, nil
}

func (r *interactionAlertRepository) MarkRead(ctx context.Context, userID int64, alertID int64) error {
	now := time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE interaction_alerts
		SET read_at = $3
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`,
		alertID, userID, now)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
