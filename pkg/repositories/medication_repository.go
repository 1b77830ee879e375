package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/database"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
)

// MedicationRepository provides read access to the medication catalog.
// The catalog is owned elsewhere; the pipeline never writes it.
type MedicationRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Medication, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Medication, error)
}

type medicationRepository struct {
	db *database.DB
}

func NewMedicationRepository(db *database.DB) MedicationRepository {
	return &medicationRepository{db: db}
}

var _ MedicationRepository = (*medicationRepository)(nil)

func (r *medicationRepository) GetByID(ctx context.Context, id int64) (*models.Medication, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, active_principle, manufacturer, registration_number, form, created_at, updated_at
		FROM medications
		WHERE id = $1`, id)

	med := &models.Medication{}
	err := row.Scan(
		&med.ID, &med.Name, &med.ActivePrinciple, &med.Manufacturer,
		&med.RegistrationNumber, &med.Form, &med.CreatedAt, &med.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	return med, nil
}

func (r *medicationRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Medication, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, active_principle, manufacturer, registration_number, form, created_at, updated_at
		FROM medications
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	defer rows.Close()

	var meds []*models.Medication
	for rows.Next() {
		med := &models.Medication{}
		err := rows.Scan(
			&med.ID, &med.Name, &med.ActivePrinciple, &med.Manufacturer,
			&med.RegistrationNumber, &med.Form, &med.CreatedAt, &med.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		meds = append(meds, med)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return meds, nil
}
