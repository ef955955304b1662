package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/credit-engine/internal/domain"
	"github.com/segyhp/credit-engine/internal/repository"
)

type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) Create(ctx context.Context, credit *domain.Credit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *MockCreditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Credit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credit), args.Error(1)
}

func (m *MockCreditRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Credit), args.Error(1)
}

func (m *MockCreditRepository) ApplyPayment(ctx context.Context, payment *domain.Payment, guard repository.PaymentGuard) (*domain.Credit, error) {
	args := m.Called(ctx, payment, guard)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credit), args.Error(1)
}

func (m *MockCreditRepository) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockCreditRepository) MarkCompleted(ctx context.Context, now time.Time) ([]*domain.Credit, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Credit), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) ListByCreditID(ctx context.Context, creditID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockCreditCache struct {
	mock.Mock
}

func (m *MockCreditCache) GetCredits(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Credit), args.Bool(1), args.Error(2)
}

func (m *MockCreditCache) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCreditCache) SetCredits(ctx context.Context, userID uuid.UUID, version int64, credits []*domain.Credit) error {
	args := m.Called(ctx, userID, version, credits)
	return args.Error(0)
}

func (m *MockCreditCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
