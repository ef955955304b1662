package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/credit-engine/internal/domain"
)

type MockCreditService struct {
	mock.Mock
}

func (m *MockCreditService) CreateCredit(ctx context.Context, userID uuid.UUID, request *domain.CreateCreditRequest) (*domain.Credit, error) {
	args := m.Called(ctx, userID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credit), args.Error(1)
}

func (m *MockCreditService) ListCredits(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Credit), args.Error(1)
}

func (m *MockCreditService) GetCredit(ctx context.Context, creditID uuid.UUID) (*domain.Credit, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credit), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) ApplyPayment(ctx context.Context, request *domain.ApplyPaymentRequest) (*domain.Payment, *domain.Credit, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Payment), args.Get(1).(*domain.Credit), args.Error(2)
}

func (m *MockLedgerService) RemoveCredit(ctx context.Context, creditID uuid.UUID) error {
	args := m.Called(ctx, creditID)
	return args.Error(0)
}

func (m *MockLedgerService) ListPayments(ctx context.Context, creditID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResponse), args.Error(1)
}

func (m *MockAuthService) ParseToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
