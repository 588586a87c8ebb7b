package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/db"
)

// PostgresApplicantRepository handles applicant database operations
type PostgresApplicantRepository struct {
	db db.Querier
}

// NewApplicantRepository creates a new applicant repository
func NewApplicantRepository(q db.Querier) *PostgresApplicantRepository {
	return &PostgresApplicantRepository{db: q}
}

// Upsert inserts the applicant keyed by email and loads the stored id and name
// into applicant. A name already on record is never replaced.
func (r *PostgresApplicantRepository) Upsert(ctx context.Context, applicant *models.Applicant) error {
	query := `
		INSERT INTO applicants (id, email, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT applicants_email_key
		DO UPDATE SET full_name = COALESCE(NULLIF(applicants.full_name, ''), EXCLUDED.full_name)
		RETURNING id, full_name
	`

	err := r.db.QueryRow(ctx, query, applicant.ID, applicant.Email, applicant.FullName).
		Scan(&applicant.ID, &applicant.FullName)
	if err != nil {
		return fmt.Errorf("error upserting applicant: %w", err)
	}

	return nil
}

// GetByID retrieves an applicant by ID
func (r *PostgresApplicantRepository) GetByID(ctx context.Context, id string) (*models.Applicant, error) {
	query := `
		SELECT id, email, full_name
		FROM applicants
		WHERE id = $1
	`

	var applicant models.Applicant
	err := r.db.QueryRow(ctx, query, id).Scan(&applicant.ID, &applicant.Email, &applicant.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicantNotFound
		}
		return nil, fmt.Errorf("error retrieving applicant: %w", err)
	}

	return &applicant, nil
}
