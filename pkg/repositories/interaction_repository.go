package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/database"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
)

// InteractionRepository provides data access for persisted interaction pairs.
type InteractionRepository interface {
	// ListCheckedMedicationIDs returns the candidate ids for which an
	// interaction record with the given medication already exists, in either
	// stored direction.
	ListCheckedMedicationIDs(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error)

	// CreateBidirectional writes every result twice, forward and mirrored,
	// inside a single transaction. Either both directions of every pair are
	// persisted or none are.
	CreateBidirectional(ctx context.Context, medicationID int64, results []models.InteractionResult) error

	// GetByPair returns the directional record for (medicationID, interactsWithID),
	// or nil when the pair has never been checked.
	GetByPair(ctx context.Context, medicationID int64, interactsWithID int64) (*models.MedicationInteraction, error)
}

type interactionRepository struct {
	db *database.DB
}

func NewInteractionRepository(db *database.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

var _ InteractionRepository = (*interactionRepository)(nil)

func (r *interactionRepository) ListCheckedMedicationIDs(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT
			CASE WHEN medication_id = $1 THEN interacts_with_id ELSE medication_id END
		FROM medication_interactions
		WHERE (medication_id = $1 AND interacts_with_id = ANY($2))
		   OR (interacts_with_id = $1 AND medication_id = ANY($2))`,
		medicationID, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list checked pairs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan checked pair: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checked pairs: %w", err)
	}

	return ids, nil
}

func (r *interactionRepository) CreateBidirectional(ctx context.Context, medicationID int64, results []models.InteractionResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	const insert = `
		INSERT INTO medication_interactions (
			medication_id, interacts_with_id, has_interaction, severity, description, checked_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (medication_id, interacts_with_id) DO UPDATE
		SET has_interaction = EXCLUDED.has_interaction,
		    severity = EXCLUDED.severity,
		    description = EXCLUDED.description,
		    checked_at = EXCLUDED.checked_at`

	for _, res := range results {
		_, err = tx.Exec(ctx, insert,
			medicationID, res.MedicationID, res.HasInteraction, res.Severity, res.Description, res.CheckedAt)
		if err != nil {
			return fmt.Errorf("failed to create interaction %d->%d: %w", medicationID, res.MedicationID, err)
		}

		_, err = tx.Exec(ctx, insert,
			res.MedicationID, medicationID, res.HasInteraction, res.Severity, res.Description, res.CheckedAt)
		if err != nil {
			return fmt.Errorf("failed to create interaction %d->%d: %w", res.MedicationID, medicationID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *interactionRepository) GetByPair(ctx context.Context, medicationID int64, interactsWithID int64) (*models.MedicationInteraction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, medication_id, interacts_with_id, has_interaction, severity, description, checked_at, created_at
		FROM medication_interactions
		WHERE medication_id = $1 AND interacts_with_id = $2`,
		medicationID, interactsWithID)

	mi := &models.MedicationInteraction{}
	err := row.Scan(
		&mi.ID, &mi.MedicationID, &mi.InteractsWithID, &mi.HasInteraction,
		&mi.Severity, &mi.Description, &mi.CheckedAt, &mi.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}

	return mi, nil
}
