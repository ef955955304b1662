package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/segyhp/credit-engine/internal/domain"
	"github.com/segyhp/credit-engine/internal/logger"
	"github.com/segyhp/credit-engine/internal/mocks"
	"github.com/segyhp/credit-engine/internal/repository"
	customError "github.com/segyhp/credit-engine/pkg/errors"
)

func seedCredit(t *testing.T, f *memoryFixture, months int) *domain.Credit {
	t.Helper()
	credit, err := f.credits.CreateCredit(context.Background(), uuid.New(), createRequest(t, "1200", "0", months))
	require.NoError(t, err)
	return credit
}

func paymentRequest(t *testing.T, creditID uuid.UUID, amount string) *domain.ApplyPaymentRequest {
	t.Helper()
	return &domain.ApplyPaymentRequest{CreditID: creditID, Amount: dec(t, amount)}
}

func TestApplyPayment_AccumulatesAggregates(t *testing.T) {
	f := newMemoryFixture(false)
	ctx := context.Background()
	credit := seedCredit(t, f, 12)

	for i := 0; i < 3; i++ {
		payment, updated, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, credit.ID, "100"))
		require.NoError(t, err)
		assert.Equal(t, credit.ID, payment.CreditID)
		assert.Equal(t, i+1, updated.PaidMonths)
	}

	stored, err := f.store.GetByID(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.PaidMonths)
	assert.Equal(t, "300.00", stored.PaidAmount.StringFixed(2))

	payments, err := f.ledger.ListPayments(ctx, credit.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.PaymentsApplied))
	assert.Equal(t, 300.0, testutil.ToFloat64(f.metrics.AmountApplied))
}

func TestApplyPayment_MonthFieldDoesNotDriveAggregates(t *testing.T) {
	f := newMemoryFixture(false)
	credit := seedCredit(t, f, 12)

	request := paymentRequest(t, credit.ID, "100")
	request.Month = 7

	payment, updated, err := f.ledger.ApplyPayment(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, 7, payment.Month)
	assert.Equal(t, 1, updated.PaidMonths)
}

func TestApplyPayment_DefaultsPaymentDate(t *testing.T) {
	f := newMemoryFixture(false)
	credit := seedCredit(t, f, 12)

	payment, _, err := f.ledger.ApplyPayment(context.Background(), paymentRequest(t, credit.ID, "100"))
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Truncate(24*time.Hour), payment.PaymentDate)
	assert.Equal(t, fixedNow, payment.CreatedAt)
}

func TestApplyPayment_RejectsInvalidAmount(t *testing.T) {
	for _, amount := range []string{"0", "-5", "-0.01", "0.004", "10.005"} {
		t.Run(amount, func(t *testing.T) {
			f := newMemoryFixture(false)
			ctx := context.Background()
			credit := seedCredit(t, f, 12)

			payment, updated, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, credit.ID, amount))

			assert.Nil(t, payment)
			assert.Nil(t, updated)
			assert.True(t, errors.Is(err, customError.ErrInvalidPaymentAmount))
			assert.Equal(t, customError.ErrCodeInvalidPaymentAmount, customError.CodeOf(err))

			stored, err := f.store.GetByID(ctx, credit.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, stored.PaidMonths)
			assert.True(t, stored.PaidAmount.IsZero())

			payments, err := f.ledger.ListPayments(ctx, credit.ID)
			require.NoError(t, err)
			assert.Empty(t, payments)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentsRejected.WithLabelValues(customError.ErrCodeInvalidPaymentAmount)))
		})
	}
}

func TestApplyPayment_AcceptsTrailingZeros(t *testing.T) {
	f := newMemoryFixture(false)
	credit := seedCredit(t, f, 12)

	_, updated, err := f.ledger.ApplyPayment(context.Background(), paymentRequest(t, credit.ID, "10.500"))
	require.NoError(t, err)
	assert.Equal(t, "10.50", updated.PaidAmount.StringFixed(2))
}

func TestApplyPayment_UnknownCredit(t *testing.T) {
	f := newMemoryFixture(false)

	_, _, err := f.ledger.ApplyPayment(context.Background(), paymentRequest(t, uuid.New(), "100"))

	assert.True(t, errors.Is(err, customError.ErrCreditNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentsRejected.WithLabelValues(customError.ErrCodeCreditNotFound)))
}

func TestApplyPayment_AcceptsPaymentsBeyondDuration(t *testing.T) {
	f := newMemoryFixture(false)
	ctx := context.Background()
	credit := seedCredit(t, f, 2)

	for i := 0; i < 3; i++ {
		_, _, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, credit.ID, "600"))
		require.NoError(t, err)
	}

	stored, err := f.store.GetByID(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.PaidMonths)
	assert.Equal(t, "1800.00", stored.PaidAmount.StringFixed(2))
	assert.True(t, stored.Outstanding().IsZero())
}

func TestApplyPayment_RejectOverpayment(t *testing.T) {
	f := newMemoryFixture(true)
	ctx := context.Background()
	credit := seedCredit(t, f, 2)

	for i := 0; i < 2; i++ {
		_, _, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, credit.ID, "600"))
		require.NoError(t, err)
	}

	_, _, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, credit.ID, "600"))
	assert.True(t, errors.Is(err, customError.ErrCreditSettled))
	assert.Equal(t, customError.ErrCodeCreditSettled, customError.CodeOf(err))

	stored, err := f.store.GetByID(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.PaidMonths)
	assert.Equal(t, "1200.00", stored.PaidAmount.StringFixed(2))
}

func TestApplyPayment_ConcurrentPaymentsAreNotLost(t *testing.T) {
	const workers = 50

	f := newMemoryFixture(false)
	ctx := context.Background()
	credit := seedCredit(t, f, 12)

	amount := dec(t, "12.50")

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, _, err := f.ledger.ApplyPayment(ctx, &domain.ApplyPaymentRequest{CreditID: credit.ID, Amount: amount})
			return err
		})
	}
	require.NoError(t, g.Wait())

	stored, err := f.store.GetByID(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, stored.PaidMonths)
	assert.Equal(t, "625.00", stored.PaidAmount.StringFixed(2))

	payments, err := f.ledger.ListPayments(ctx, credit.ID)
	require.NoError(t, err)
	assert.Len(t, payments, workers)
}

func TestApplyPayment_StorageFailure(t *testing.T) {
	repo := &mocks.MockCreditRepository{}
	m := newLedgerMetrics()
	svc := NewLedgerService(repo, &mocks.MockPaymentRepository{}, &mocks.MockCreditCache{}, m, logger.Discard(), false)
	creditID := uuid.New()

	repo.On("ApplyPayment", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.CreditID == creditID
	}), mock.Anything).Return(nil, errors.New("deadlock detected"))

	_, _, err := svc.ApplyPayment(context.Background(), paymentRequest(t, creditID, "100"))

	assert.True(t, errors.Is(err, customError.ErrStorageFailure))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsRejected.WithLabelValues(customError.ErrCodeStorageFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PaymentsApplied))
	repo.AssertExpectations(t)
}

func TestApplyPayment_InvalidatesOwnerCache(t *testing.T) {
	repo := &mocks.MockCreditRepository{}
	cache := &mocks.MockCreditCache{}
	svc := NewLedgerService(repo, &mocks.MockPaymentRepository{}, cache, newLedgerMetrics(), logger.Discard(), false)
	ownerID := uuid.New()
	credit := &domain.Credit{ID: uuid.New(), UserID: ownerID, DurationMonths: 12, PaidMonths: 1, PaidAmount: dec(t, "100")}

	repo.On("ApplyPayment", mock.Anything, mock.Anything, mock.Anything).Return(credit, nil)
	cache.On("Invalidate", mock.Anything, ownerID).Return(nil)

	_, updated, err := svc.ApplyPayment(context.Background(), paymentRequest(t, credit.ID, "100"))

	require.NoError(t, err)
	assert.Equal(t, credit, updated)
	cache.AssertExpectations(t)
}

func TestRemoveCredit_CascadesAndIsIdempotent(t *testing.T) {
	f := newMemoryFixture(false)
	ctx := context.Background()
	credit := seedCredit(t, f, 12)

	for i := 0; i < 2; i++ {
		_, _, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, credit.ID, "100"))
		require.NoError(t, err)
	}

	require.NoError(t, f.ledger.RemoveCredit(ctx, credit.ID))

	_, err := f.credits.GetCredit(ctx, credit.ID)
	assert.True(t, errors.Is(err, customError.ErrCreditNotFound))

	payments, err := f.ledger.ListPayments(ctx, credit.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	credits, err := f.credits.ListCredits(ctx, credit.UserID)
	require.NoError(t, err)
	assert.Empty(t, credits)

	assert.NoError(t, f.ledger.RemoveCredit(ctx, credit.ID))
	assert.NoError(t, f.ledger.RemoveCredit(ctx, uuid.New()))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CreditsRemoved))
}

func TestRemoveCredit_LeavesOtherCreditsAlone(t *testing.T) {
	f := newMemoryFixture(false)
	ctx := context.Background()
	removed := seedCredit(t, f, 12)
	kept := seedCredit(t, f, 12)

	_, _, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, kept.ID, "100"))
	require.NoError(t, err)

	require.NoError(t, f.ledger.RemoveCredit(ctx, removed.ID))

	payments, err := f.ledger.ListPayments(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestRemoveCredit_StorageFailure(t *testing.T) {
	repo := &mocks.MockCreditRepository{}
	cache := &mocks.MockCreditCache{}
	svc := NewLedgerService(repo, &mocks.MockPaymentRepository{}, cache, newLedgerMetrics(), logger.Discard(), false)
	creditID := uuid.New()

	repo.On("Delete", mock.Anything, creditID).Return(uuid.Nil, false, errors.New("connection refused"))

	err := svc.RemoveCredit(context.Background(), creditID)

	assert.True(t, errors.Is(err, customError.ErrStorageFailure))
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestListPayments_StorageFailure(t *testing.T) {
	payments := &mocks.MockPaymentRepository{}
	svc := NewLedgerService(&mocks.MockCreditRepository{}, payments, &mocks.MockCreditCache{}, newLedgerMetrics(), logger.Discard(), false)
	creditID := uuid.New()

	payments.On("ListByCreditID", mock.Anything, creditID).Return(nil, repository.ErrNotFound)

	_, err := svc.ListPayments(context.Background(), creditID)
	assert.True(t, errors.Is(err, customError.ErrStorageFailure))
}

func TestCompleteSettledCredits(t *testing.T) {
	f := newMemoryFixture(false)
	ctx := context.Background()
	settled := seedCredit(t, f, 1)
	open := seedCredit(t, f, 12)

	_, _, err := f.ledger.ApplyPayment(ctx, paymentRequest(t, settled.ID, "1200"))
	require.NoError(t, err)
	_, _, err = f.ledger.ApplyPayment(ctx, paymentRequest(t, open.ID, "100"))
	require.NoError(t, err)

	count, err := f.ledger.CompleteSettledCredits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := f.store.GetByID(ctx, settled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CreditStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.PaidMonths)

	stillOpen, err := f.store.GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CreditStatusActive, stillOpen.Status)

	count, err = f.ledger.CompleteSettledCredits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CreditsCompleted))
}
