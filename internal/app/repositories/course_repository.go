package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/db"
)

// PostgresCourseRepository reads the course catalog
type PostgresCourseRepository struct {
	db db.Querier
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(q db.Querier) *PostgresCourseRepository {
	return &PostgresCourseRepository{db: q}
}

// GetByID retrieves a course by ID
func (r *PostgresCourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `
		SELECT id, name, degree_level, field_tag, duration_text
		FROM courses
		WHERE id = $1
	`

	var course models.Course
	err := r.db.QueryRow(ctx, query, id).Scan(
		&course.ID,
		&course.Name,
		&course.DegreeLevel,
		&course.FieldTag,
		&course.DurationText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	return &course, nil
}

// List retrieves all courses ordered by id
func (r *PostgresCourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, degree_level, field_tag, duration_text
		FROM courses
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(
			&course.ID,
			&course.Name,
			&course.DegreeLevel,
			&course.FieldTag,
			&course.DurationText,
		); err != nil {
			return nil, err
		}
		courses = append(courses, &course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

// Upsert inserts or replaces a catalog entry. Used by the catalog seed.
func (r *PostgresCourseRepository) Upsert(ctx context.Context, course *models.Course) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO courses (id, name, degree_level, field_tag, duration_text)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			degree_level = EXCLUDED.degree_level,
			field_tag = EXCLUDED.field_tag,
			duration_text = EXCLUDED.duration_text`,
		course.ID, course.Name, course.DegreeLevel, course.FieldTag, course.DurationText)
	if err != nil {
		return fmt.Errorf("error upserting course %s: %w", course.ID, err)
	}
	return nil
}
