package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/domain"
	"github.com/segyhp/credit-engine/internal/metrics"
	"github.com/segyhp/credit-engine/internal/repository"
	customError "github.com/segyhp/credit-engine/pkg/errors"
	"github.com/segyhp/credit-engine/pkg/utils"
)

// LedgerService applies payments to credits and keeps paid_months / paid_amount in step
// with the stored payment records.
type LedgerService struct {
	credits           repository.CreditRepository
	payments          repository.PaymentRepository
	cache             repository.CreditCache
	metrics           *metrics.Ledger
	log               logrus.FieldLogger
	rejectOverpayment bool
	now               func() time.Time
}

func NewLedgerService(
	credits repository.CreditRepository,
	payments repository.PaymentRepository,
	cache repository.CreditCache,
	metrics *metrics.Ledger,
	log logrus.FieldLogger,
	rejectOverpayment bool,
) *LedgerService {
	return &LedgerService{
		credits:           credits,
		payments:          payments,
		cache:             cache,
		metrics:           metrics,
		log:               log,
		rejectOverpayment: rejectOverpayment,
		now:               time.Now,
	}
}

// ApplyPayment records one payment. Every call counts as exactly one installment,
// whatever the Month field says, and adds the amount to the paid total. Amounts
// must be positive whole cents.
func (s *LedgerService) ApplyPayment(ctx context.Context, request *domain.ApplyPaymentRequest) (*domain.Payment, *domain.Credit, error) {
	if !request.Amount.IsPositive() || !utils.HasScale(request.Amount, utils.MoneyScale) {
		err := customError.WrapInvalidPaymentAmount(request.Amount.String())
		s.rejected(err)
		return nil, nil, err
	}

	now := s.now().UTC()
	payment := &domain.Payment{
		ID:          uuid.New(),
		CreditID:    request.CreditID,
		Month:       request.Month,
		Amount:      request.Amount,
		PaymentDate: request.PaymentDate.OrDefault(now),
		Method:      request.Method,
		Reference:   request.Reference,
		CreatedAt:   now,
	}

	var guard repository.PaymentGuard
	if s.rejectOverpayment {
		guard = func(credit *domain.Credit) error {
			if credit.IsSettled() {
				return customError.WrapCreditSettled(credit.ID.String())
			}
			return nil
		}
	}

	credit, err := s.credits.ApplyPayment(ctx, payment, guard)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			err = customError.WrapCreditNotFound(request.CreditID.String())
		case errors.Is(err, customError.ErrCreditSettled):
		default:
			err = customError.WrapStorageFailure(err)
		}
		s.rejected(err)
		return nil, nil, err
	}

	s.metrics.PaymentsApplied.Inc()
	s.metrics.AmountApplied.Add(payment.Amount.InexactFloat64())
	invalidate(ctx, s.cache, s.log, credit.UserID)

	entry := s.log.WithFields(logrus.Fields{
		"credit_id":   credit.ID,
		"payment_id":  payment.ID,
		"amount":      utils.FormatMoney(payment.Amount),
		"paid_months": credit.PaidMonths,
		"paid_amount": utils.FormatMoney(credit.PaidAmount),
	})
	if credit.PaidMonths > credit.DurationMonths {
		entry.Warn("payment recorded beyond the scheduled installments")
	} else {
		entry.Info("payment recorded")
	}

	return payment, credit, nil
}

// RemoveCredit deletes a credit and all of its payments. Removing an unknown credit succeeds.
func (s *LedgerService) RemoveCredit(ctx context.Context, creditID uuid.UUID) error {
	ownerID, deleted, err := s.credits.Delete(ctx, creditID)
	if err != nil {
		return customError.WrapStorageFailure(err)
	}

	if !deleted {
		s.log.WithField("credit_id", creditID).Debug("remove requested for unknown credit")
		return nil
	}

	s.metrics.CreditsRemoved.Inc()
	invalidate(ctx, s.cache, s.log, ownerID)
	s.log.WithField("credit_id", creditID).Info("credit removed")

	return nil
}

// ListPayments returns the payments of a credit in the order they were applied.
func (s *LedgerService) ListPayments(ctx context.Context, creditID uuid.UUID) ([]*domain.Payment, error) {
	payments, err := s.payments.ListByCreditID(ctx, creditID)
	if err != nil {
		return nil, customError.WrapStorageFailure(err)
	}
	return payments, nil
}

// CompleteSettledCredits marks fully paid active credits as completed. Aggregates are left untouched.
func (s *LedgerService) CompleteSettledCredits(ctx context.Context) (int, error) {
	completed, err := s.credits.MarkCompleted(ctx, s.now().UTC())
	if err != nil {
		return 0, customError.WrapStorageFailure(err)
	}

	owners := make(map[uuid.UUID]struct{}, len(completed))
	for _, credit := range completed {
		owners[credit.UserID] = struct{}{}
		s.log.WithField("credit_id", credit.ID).Info("credit completed")
	}
	for ownerID := range owners {
		invalidate(ctx, s.cache, s.log, ownerID)
	}

	s.metrics.CreditsCompleted.Add(float64(len(completed)))
	return len(completed), nil
}

func (s *LedgerService) rejected(err error) {
	s.metrics.PaymentsRejected.WithLabelValues(customError.CodeOf(err)).Inc()
}
