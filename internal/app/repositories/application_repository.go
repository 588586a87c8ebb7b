package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/db"
	"github.com/yigit/admissions/internal/pkg/logger"
)

var applicationColumns = []string{
	"a.id", "a.applicant_id", "a.course_id", "a.status", "a.created_at", "a.updated_at",
	"p.email", "p.full_name",
	"o.tuition_fee_gross", "o.discount_percent", "o.tuition_fee_net", "o.duration_years",
	"o.deadline_date", "o.accepted_at", "o.payment_reference", "o.amount_paid", "o.paid_at", "o.created_at",
}

// PostgresApplicationRepository handles application and offer database operations
type PostgresApplicationRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new PostgresApplicationRepository
func NewApplicationRepository(database *db.PostgresDB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PostgresApplicationRepository) baseSelect() squirrel.SelectBuilder {
	return r.sb.Select(applicationColumns...).
		From("applications a").
		Join("applicants p ON p.id = a.applicant_id").
		LeftJoin("offers o ON o.application_id = a.id")
}

// scanApplication reads one row of applicationColumns. Offer columns are NULL before admission.
func scanApplication(row pgx.Row) (*models.Application, error) {
	var (
		app       models.Application
		applicant models.Applicant
		gross     *int64
		discount  *int64
		net       *int64
		years     *int
		deadline  *time.Time
		accepted  *time.Time
		reference *string
		paid      *int64
		paidAt    *time.Time
		offerAt   *time.Time
	)

	if err := row.Scan(
		&app.ID, &app.ApplicantID, &app.CourseID, &app.Status, &app.CreatedAt, &app.UpdatedAt,
		&applicant.Email, &applicant.FullName,
		&gross, &discount, &net, &years,
		&deadline, &accepted, &reference, &paid, &paidAt, &offerAt,
	); err != nil {
		return nil, err
	}

	applicant.ID = app.ApplicantID
	app.Applicant = &applicant

	if gross != nil {
		app.Offer = &models.Offer{
			ApplicationID:    app.ID,
			TuitionFeeGross:  *gross,
			DiscountPercent:  *discount,
			TuitionFeeNet:    *net,
			DurationYears:    *years,
			DeadlineDate:     *deadline,
			AcceptedAt:       accepted,
			PaymentReference: reference,
			AmountPaid:       paid,
			PaidAt:           paidAt,
			CreatedAt:        *offerAt,
		}
	}

	return &app, nil
}

// Create inserts a new application. The applicant must already exist.
func (r *PostgresApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	sql, args, err := r.sb.Insert("applications").
		Columns("id", "applicant_id", "course_id", "status", "created_at", "updated_at").
		Values(app.ID, app.ApplicantID, app.CourseID, app.Status, app.CreatedAt, app.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("applicationId", app.ID).Msg("Error creating application")
		return fmt.Errorf("error creating application: %w", err)
	}

	return nil
}

// GetByID retrieves an application with its applicant and offer
func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if !isApplicationID(id) {
		return nil, ErrApplicationNotFound
	}

	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"a.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	app, err := scanApplication(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error getting application by ID: %w", err)
	}

	return app, nil
}

// List returns one page of applications, newest first, and the total matching count
func (r *PostgresApplicationRepository) List(ctx context.Context, filter ListFilter) ([]*models.Application, int64, error) {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"a.status": filter.Status})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("applications a").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count applications query: %w", err)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting applications: %w", err)
	}

	sql, args, err := r.baseSelect().
		Where(where).
		OrderBy("a.created_at DESC", "a.id").
		Limit(uint64(filter.Size)).
		Offset(uint64(filter.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying applications: %w", err)
	}
	defer rows.Close()

	apps := []*models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning application row: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

// ApplyStatusChange writes the status and any offer mutation in a single transaction
func (r *PostgresApplicationRepository) ApplyStatusChange(ctx context.Context, change StatusChange) error {
	if !isApplicationID(change.ApplicationID) {
		return ErrApplicationNotFound
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx db.Querier) error {
		tag, err := tx.Exec(ctx,
			`UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			change.TargetStatus, change.At, change.ApplicationID, change.ExpectedStatus)
		if err != nil {
			return fmt.Errorf("error updating application status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStatusPrecondition
		}

		if o := change.NewOffer; o != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO offers (application_id, tuition_fee_gross, discount_percent, tuition_fee_net,
					duration_years, deadline_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				change.ApplicationID, o.TuitionFeeGross, o.DiscountPercent, o.TuitionFeeNet,
				o.DurationYears, o.DeadlineDate, change.At); err != nil {
				return fmt.Errorf("error attaching offer: %w", err)
			}
		}

		if change.AcceptOffer {
			if err := execOne(ctx, tx,
				`UPDATE offers SET accepted_at = $1 WHERE application_id = $2 AND accepted_at IS NULL`,
				change.At, change.ApplicationID); err != nil {
				return fmt.Errorf("error accepting offer: %w", err)
			}
		}

		if p := change.Payment; p != nil {
			if err := execOne(ctx, tx,
				`UPDATE offers SET payment_reference = $1, amount_paid = $2, paid_at = $3 WHERE application_id = $4`,
				p.Reference, p.Amount, change.At, change.ApplicationID); err != nil {
				return fmt.Errorf("error recording payment: %w", err)
			}
		}

		return nil
	})
}

// execOne runs a statement that must touch exactly one row
func execOne(ctx context.Context, q db.Querier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("expected 1 row affected, got %d", tag.RowsAffected())
	}
	return nil
}
