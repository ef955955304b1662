package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one installment applied against a credit.
type Payment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CreditID    uuid.UUID       `json:"credit_id" db:"credit_id"`
	Month       int             `json:"month" db:"month"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate time.Time       `json:"payment_date" db:"payment_date"`
	Method      string          `json:"method" db:"method"`
	Reference   string          `json:"reference" db:"reference"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

type ApplyPaymentRequest struct {
	CreditID    uuid.UUID       `json:"credit_id" validate:"required"`
	Month       int             `json:"month" validate:"gte=0"`
	Amount      decimal.Decimal `json:"amount" validate:"decimal_gt=0,decimal_scale=2"`
	PaymentDate Date            `json:"payment_date"`
	Method      string          `json:"method" validate:"max=64"`
	Reference   string          `json:"reference" validate:"max=255"`
}

type ApplyPaymentResponse struct {
	Payment    *Payment        `json:"payment"`
	PaidMonths int             `json:"paid_months"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Message    string          `json:"message"`
}

type PaymentsResponse struct {
	CreditID uuid.UUID  `json:"credit_id"`
	Payments []*Payment `json:"payments"`
}
