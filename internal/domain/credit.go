package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/credit-engine/pkg/utils"
)

const (
	CreditStatusActive    = "active"
	CreditStatusCompleted = "completed"
	CreditStatusCancelled = "cancelled"
)

// Credit represents a loan granted to a client
type Credit struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	ClientName     string          `json:"client_name" db:"client_name"`
	ClientEmail    string          `json:"client_email" db:"client_email"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	DurationMonths int             `json:"duration_months" db:"duration_months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment" db:"monthly_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest" db:"total_interest"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	Status         string          `json:"status" db:"status"`
	PaidMonths     int             `json:"paid_months" db:"paid_months"`
	PaidAmount     decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsSettled reports whether every scheduled installment has been paid.
func (c *Credit) IsSettled() bool {
	return c.PaidMonths >= c.DurationMonths
}

// Outstanding is the remaining balance, never below zero.
func (c *Credit) Outstanding() decimal.Decimal {
	outstanding := c.TotalAmount.Sub(c.PaidAmount)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

// DTOs for requests and responses

type CreateCreditRequest struct {
	ClientName     string          `json:"client_name" validate:"required,max=255"`
	ClientEmail    string          `json:"client_email" validate:"required,email"`
	Amount         decimal.Decimal `json:"amount" validate:"decimal_gt=0,decimal_scale=2"`
	InterestRate   decimal.Decimal `json:"interest_rate" validate:"decimal_gte=0,decimal_scale=4"`
	DurationMonths int             `json:"duration_months" validate:"required,gt=0"`
	StartDate      Date            `json:"start_date"`
}

type CreateCreditResponse struct {
	CreditID       uuid.UUID `json:"credit_id"`
	MonthlyPayment string    `json:"monthly_payment"`
	TotalInterest  string    `json:"total_interest"`
	TotalAmount    string    `json:"total_amount"`
}

type CreditResponse struct {
	*Credit
	Outstanding decimal.Decimal `json:"outstanding"`
	Settled     bool            `json:"settled"`
	NextDueDate *time.Time      `json:"next_due_date,omitempty"`
}

// NewCreditResponse decorates a credit with its derived balance fields.
func NewCreditResponse(credit *Credit) *CreditResponse {
	resp := &CreditResponse{
		Credit:      credit,
		Outstanding: credit.Outstanding(),
		Settled:     credit.IsSettled(),
	}
	if !resp.Settled {
		due := utils.CalculateDueDate(credit.StartDate, credit.PaidMonths+1)
		resp.NextDueDate = &due
	}
	return resp
}

// NewCreditResponses keeps the input order.
func NewCreditResponses(credits []*Credit) []*CreditResponse {
	out := make([]*CreditResponse, 0, len(credits))
	for _, credit := range credits {
		out = append(out, NewCreditResponse(credit))
	}
	return out
}
