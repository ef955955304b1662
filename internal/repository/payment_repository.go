package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/credit-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListByCreditID(ctx context.Context, creditID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, credit_id, month, amount, payment_date, method, reference, created_at
		FROM payments
		WHERE credit_id = $1
		ORDER BY created_at, id
	`

	payments := []*domain.Payment{}
	err := r.db.SelectContext(ctx, &payments, query, creditID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}
