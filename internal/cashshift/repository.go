package cashshift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrShiftNotFound = errors.New("cash shift not found")

type Repository interface {
	Create(ctx context.Context, startAmount decimal.Decimal, startDate time.Time) (*CashShift, error)
	GetOpen(ctx context.Context) (*CashShift, error)
	GetByID(ctx context.Context, shiftID int64) (*CashShift, error)
	Close(ctx context.Context, shiftID int64, endAmount decimal.Decimal, endDate time.Time) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create relies on the partial unique index over status = 'OPEN' so the
// one-open-shift invariant holds even with concurrent callers.
func (r *postgresRepository) Create(ctx context.Context, startAmount decimal.Decimal, startDate time.Time) (*CashShift, error) {
	query := `
		INSERT INTO cash_shifts (status, start_amount, start_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	shift := &CashShift{
		Status:      StatusOpen,
		StartAmount: startAmount,
		StartDate:   startDate,
	}

	err := r.db.QueryRow(ctx, query, string(StatusOpen), startAmount, startDate).Scan(&shift.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrShiftAlreadyOpen
		}
		return nil, fmt.Errorf("repository: failed to insert cash shift: %w", err)
	}

	return shift, nil
}

func (r *postgresRepository) GetOpen(ctx context.Context) (*CashShift, error) {
	query := `
		SELECT id, status, start_amount, end_amount, start_date, end_date
		FROM cash_shifts
		WHERE status = $1
	`
	return r.get(ctx, query, ErrNoOpenShift, string(StatusOpen))
}

func (r *postgresRepository) GetByID(ctx context.Context, shiftID int64) (*CashShift, error) {
	query := `
		SELECT id, status, start_amount, end_amount, start_date, end_date
		FROM cash_shifts
		WHERE id = $1
	`
	return r.get(ctx, query, ErrShiftNotFound, shiftID)
}

func (r *postgresRepository) get(ctx context.Context, query string, notFound error, args ...any) (*CashShift, error) {
	var shift CashShift
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&shift.ID,
		&shift.Status,
		&shift.StartAmount,
		&shift.EndAmount,
		&shift.StartDate,
		&shift.EndDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("repository: failed to select cash shift: %w", err)
	}

	return &shift, nil
}

// Close only touches a still-open row, so a concurrent close cannot flip the
// same shift twice.
func (r *postgresRepository) Close(ctx context.Context, shiftID int64, endAmount decimal.Decimal, endDate time.Time) error {
	query := `
		UPDATE cash_shifts
		SET status = $1, end_amount = $2, end_date = $3
		WHERE id = $4 AND status = $5
	`

	cmdTag, err := r.db.Exec(ctx, query, string(StatusClosed), endAmount, endDate, shiftID, string(StatusOpen))
	if err != nil {
		return fmt.Errorf("repository: failed to close cash shift %d: %w", shiftID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNoOpenShift
	}

	return nil
}
