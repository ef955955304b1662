package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/credit-engine/internal/domain"
)

const creditColumns = `id, user_id, client_name, client_email, amount, interest_rate, duration_months,
		monthly_payment, total_interest, total_amount, start_date, status, paid_months, paid_amount,
		created_at, updated_at`

type creditRepository struct {
	db *sqlx.DB
}

func NewCreditRepository(db *sqlx.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) Create(ctx context.Context, credit *domain.Credit) error {
	query := `
		INSERT INTO credits (` + creditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		credit.ID,
		credit.UserID,
		credit.ClientName,
		credit.ClientEmail,
		credit.Amount,
		credit.InterestRate,
		credit.DurationMonths,
		credit.MonthlyPayment,
		credit.TotalInterest,
		credit.TotalAmount,
		credit.StartDate,
		credit.Status,
		credit.PaidMonths,
		credit.PaidAmount,
		credit.CreatedAt,
		credit.UpdatedAt,
	)

	return err
}

func (r *creditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE id = $1
	`

	var credit domain.Credit
	err := r.db.GetContext(ctx, &credit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &credit, nil
}

func (r *creditRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	credits := []*domain.Credit{}
	err := r.db.SelectContext(ctx, &credits, query, userID)
	if err != nil {
		return nil, err
	}

	return credits, nil
}

func (r *creditRepository) ApplyPayment(ctx context.Context, payment *domain.Payment, guard PaymentGuard) (*domain.Credit, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The row lock serializes concurrent payments against the same credit.
	var credit domain.Credit
	lockQuery := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE id = $1
		FOR UPDATE
	`
	err = tx.GetContext(ctx, &credit, lockQuery, payment.CreditID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if guard != nil {
		if err := guard(&credit); err != nil {
			return nil, err
		}
	}

	insertQuery := `
		INSERT INTO payments (id, credit_id, month, amount, payment_date, method, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		payment.ID,
		payment.CreditID,
		payment.Month,
		payment.Amount,
		payment.PaymentDate,
		payment.Method,
		payment.Reference,
		payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE credits
		SET paid_months = paid_months + 1, paid_amount = paid_amount + $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + creditColumns
	err = tx.GetContext(ctx, &credit, updateQuery, payment.CreditID, payment.Amount, payment.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &credit, nil
}

func (r *creditRepository) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE credit_id = $1`, id); err != nil {
		return uuid.Nil, false, err
	}

	var ownerID uuid.UUID
	err = tx.GetContext(ctx, &ownerID, `DELETE FROM credits WHERE id = $1 RETURNING user_id`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, tx.Commit()
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, false, err
	}

	return ownerID, true, nil
}

func (r *creditRepository) MarkCompleted(ctx context.Context, now time.Time) ([]*domain.Credit, error) {
	query := `
		UPDATE credits
		SET status = $1, updated_at = $2
		WHERE status = $3 AND paid_months >= duration_months
		RETURNING ` + creditColumns

	credits := []*domain.Credit{}
	err := r.db.SelectContext(ctx, &credits, query, domain.CreditStatusCompleted, now, domain.CreditStatusActive)
	if err != nil {
		return nil, err
	}

	return credits, nil
}
