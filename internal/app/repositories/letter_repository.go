package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/db"
	"github.com/yigit/admissions/internal/pkg/dberrors"
)

// LetterUniqueConstraint guards the one-artifact-per-(application, type) rule
const LetterUniqueConstraint = "letter_artifacts_application_type_key"

// PostgresLetterRepository handles letter artifact database operations
type PostgresLetterRepository struct {
	db db.Querier
}

// NewLetterRepository creates a new letter repository
func NewLetterRepository(q db.Querier) *PostgresLetterRepository {
	return &PostgresLetterRepository{db: q}
}

// Get retrieves the artifact of the given type for an application
func (r *PostgresLetterRepository) Get(ctx context.Context, applicationID string, letterType models.LetterType) (*models.LetterArtifact, error) {
	if !isApplicationID(applicationID) {
		return nil, ErrLetterNotFound
	}

	query := `
		SELECT id, application_id, letter_type, storage_reference, generated_at
		FROM letter_artifacts
		WHERE application_id = $1 AND letter_type = $2
	`

	var artifact models.LetterArtifact
	err := r.db.QueryRow(ctx, query, applicationID, letterType).Scan(
		&artifact.ID,
		&artifact.ApplicationID,
		&artifact.LetterType,
		&artifact.StorageReference,
		&artifact.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLetterNotFound
		}
		return nil, fmt.Errorf("error retrieving letter artifact: %w", err)
	}

	return &artifact, nil
}

// Create stores a new artifact; losing a uniqueness race yields ErrLetterAlreadyExists
func (r *PostgresLetterRepository) Create(ctx context.Context, artifact *models.LetterArtifact) error {
	if !isApplicationID(artifact.ApplicationID) {
		return ErrApplicationNotFound
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO letter_artifacts (id, application_id, letter_type, storage_reference, generated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		artifact.ID, artifact.ApplicationID, artifact.LetterType, artifact.StorageReference, artifact.GeneratedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, LetterUniqueConstraint) {
			return ErrLetterAlreadyExists
		}
		if dberrors.IsForeignKeyError(err, "") {
			return ErrApplicationNotFound
		}
		return fmt.Errorf("error creating letter artifact: %w", err)
	}
	return nil
}

// ListByApplication retrieves all artifacts of an application, oldest first
func (r *PostgresLetterRepository) ListByApplication(ctx context.Context, applicationID string) ([]*models.LetterArtifact, error) {
	if !isApplicationID(applicationID) {
		return []*models.LetterArtifact{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, application_id, letter_type, storage_reference, generated_at
		FROM letter_artifacts
		WHERE application_id = $1
		ORDER BY generated_at`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("error querying letter artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []*models.LetterArtifact{}
	for rows.Next() {
		var artifact models.LetterArtifact
		if err := rows.Scan(
			&artifact.ID,
			&artifact.ApplicationID,
			&artifact.LetterType,
			&artifact.StorageReference,
			&artifact.GeneratedAt,
		); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, &artifact)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return artifacts, nil
}
