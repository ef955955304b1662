package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/credit-engine/internal/domain"
)

// ErrNotFound is returned when a looked up row does not exist.
var ErrNotFound = errors.New("record not found")

// PaymentGuard inspects the locked credit before a payment is recorded.
// A non-nil error aborts the payment without any mutation.
type PaymentGuard func(credit *domain.Credit) error

// CreditRepository defines the interface for credit data operations
type CreditRepository interface {
	// Create stores a new credit
	Create(ctx context.Context, credit *domain.Credit) error

	// GetByID retrieves a credit by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Credit, error)

	// ListByUser retrieves credits owned by a user, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, error)

	// ApplyPayment records a payment and bumps the credit aggregates in one atomic step
	ApplyPayment(ctx context.Context, payment *domain.Payment, guard PaymentGuard) (*domain.Credit, error)

	// Delete removes a credit and its payments. A missing credit is not an error;
	// deleted reports whether a row was removed and ownerID who owned it.
	Delete(ctx context.Context, id uuid.UUID) (ownerID uuid.UUID, deleted bool, err error)

	// MarkCompleted flips active credits whose installments are all paid to completed
	MarkCompleted(ctx context.Context, now time.Time) ([]*domain.Credit, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// ListByCreditID retrieves all payments for a credit in the order they were applied
	ListByCreditID(ctx context.Context, creditID uuid.UUID) ([]*domain.Payment, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create stores a user, ignoring the call when the email is already taken
	Create(ctx context.Context, user *domain.User) (created bool, err error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CreditCache caches the credit list of a user.
//
// Every Invalidate bumps the user's version. A reader takes Version before reading
// the store and passes it to SetCredits, which drops the fill when a write has
// invalidated the list in between.
type CreditCache interface {
	GetCredits(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, bool, error)
	Version(ctx context.Context, userID uuid.UUID) (int64, error)
	SetCredits(ctx context.Context, userID uuid.UUID, version int64, credits []*domain.Credit) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
