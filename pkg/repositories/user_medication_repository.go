package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/apperrors"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/database"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
)

// UserMedicationRepository provides data access for user medications.
//
// GetUnscoped deliberately ignores ownership: background jobs run outside a
// user request and must be able to load any record by id. Everything else is
// scoped to the owning user.
type UserMedicationRepository interface {
	Create(ctx context.Context, um *models.UserMedication) error
	GetUnscoped(ctx context.Context, id int64) (*models.UserMedication, error)
	GetForUser(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
	ListActiveSiblingMedicationIDs(ctx context.Context, userID int64, excludeUserMedicationID int64) ([]int64, error)
	SetActive(ctx context.Context, userID int64, id int64, active bool) error
	DecrementStock(ctx context.Context, userID int64, id int64) (*models.UserMedication, error)
}

type userMedicationRepository struct {
	db *database.DB
}

func NewUserMedicationRepository(db *database.DB) UserMedicationRepository {
	return &userMedicationRepository{db: db}
}

var _ UserMedicationRepository = (*userMedicationRepository)(nil)

const userMedicationColumns = `
	um.id, um.user_id, um.medication_id, um.dosage, um.schedule, um.active,
	um.stock_quantity, um.stock_alert_threshold, um.created_at, um.updated_at,
	m.id, m.name, m.active_principle, m.manufacturer, m.registration_number, m.form,
	m.created_at, m.updated_at`

func (r *userMedicationRepository) Create(ctx context.Context, um *models.UserMedication) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_medications (
			user_id, medication_id, dosage, schedule, active,
			stock_quantity, stock_alert_threshold
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		um.UserID, um.MedicationID, um.Dosage, um.Schedule, um.Active,
		um.StockQuantity, um.StockAlertThreshold,
	).Scan(&um.ID, &um.CreatedAt, &um.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user medication: %w", err)
	}

	return nil
}

func (r *userMedicationRepository) GetUnscoped(ctx context.Context, id int64) (*models.UserMedication, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM user_medications um
		LEFT JOIN medications m ON m.id = um.medication_id
		WHERE um.id = $1`, userMedicationColumns), id)

	um, err := scanUserMedication(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user medication: %w", err)
	}

	return um, nil
}

func (r *userMedicationRepository) GetForUser(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM user_medications um
		LEFT JOIN medications m ON m.id = um.medication_id
		WHERE um.id = $1 AND um.user_id = $2`, userMedicationColumns), id, userID)

	um, err := scanUserMedication(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user medication: %w", err)
	}

	return um, nil
}

// ListActiveSiblingMedicationIDs returns the medication ids of the user's
// other active medications, excluding the given user-medication row and any
// rows without a medication reference.
func (r *userMedicationRepository) ListActiveSiblingMedicationIDs(ctx context.Context, userID int64, excludeUserMedicationID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT medication_id
		FROM user_medications
		WHERE user_id = $1
		  AND id <> $2
		  AND active = true
		  AND medication_id IS NOT NULL`, userID, excludeUserMedicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sibling medications: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan medication id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sibling medications: %w", err)
	}

	return ids, nil
}

func (r *userMedicationRepository) SetActive(ctx context.Context, userID int64, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_medications
		SET active = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2`, id, userID, active)
	if err != nil {
		return fmt.Errorf("failed to update user medication: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DecrementStock records one taken dose. Only active rows with remaining
// stock are updated; the follow-up read disambiguates why nothing matched.
func (r *userMedicationRepository) DecrementStock(ctx context.Context, userID int64, id int64) (*models.UserMedication, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_medications
		SET stock_quantity = stock_quantity - 1, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND active = true AND stock_quantity > 0`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		um, err := r.GetForUser(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if um == nil {
			return nil, apperrors.ErrNotFound
		}
		if !um.Active {
			return nil, apperrors.ErrInactiveMedication
		}
		return nil, apperrors.ErrOutOfStock
	}

	return r.GetForUser(ctx, userID, id)
}

func scanUserMedication(row pgx.Row) (*models.UserMedication, error) {
	um := &models.UserMedication{}

	// Medication columns are nullable because of the LEFT JOIN.
	var medID *int64
	var medName, medPrinciple, medManufacturer, medRegistration, medForm *string
	var medCreatedAt, medUpdatedAt *time.Time

	err := row.Scan(
		&um.ID, &um.UserID, &um.MedicationID, &um.Dosage, &um.Schedule, &um.Active,
		&um.StockQuantity, &um.StockAlertThreshold, &um.CreatedAt, &um.UpdatedAt,
		&medID, &medName, &medPrinciple, &medManufacturer, &medRegistration, &medForm,
		&medCreatedAt, &medUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if medID != nil {
		um.Medication = &models.Medication{
			ID:                 *medID,
			Name:               deref(medName),
			ActivePrinciple:    deref(medPrinciple),
			Manufacturer:       deref(medManufacturer),
			RegistrationNumber: deref(medRegistration),
			Form:               deref(medForm),
			CreatedAt:          derefTime(medCreatedAt),
			UpdatedAt:          derefTime(medUpdatedAt),
		}
	}

	return um, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
