package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/domain"
	"github.com/segyhp/credit-engine/internal/metrics"
	"github.com/segyhp/credit-engine/internal/repository"
	customError "github.com/segyhp/credit-engine/pkg/errors"
	"github.com/segyhp/credit-engine/pkg/utils"
)

type CreditService struct {
	credits           repository.CreditRepository
	cache             repository.CreditCache
	metrics           *metrics.Ledger
	log               logrus.FieldLogger
	maxDurationMonths int
	now               func() time.Time
}

func NewCreditService(
	credits repository.CreditRepository,
	cache repository.CreditCache,
	metrics *metrics.Ledger,
	log logrus.FieldLogger,
	maxDurationMonths int,
) *CreditService {
	return &CreditService{
		credits:           credits,
		cache:             cache,
		metrics:           metrics,
		log:               log,
		maxDurationMonths: maxDurationMonths,
		now:               time.Now,
	}
}

// CreateCredit computes the repayment terms and stores a new active credit owned by userID.
func (s *CreditService) CreateCredit(ctx context.Context, userID uuid.UUID, request *domain.CreateCreditRequest) (*domain.Credit, error) {
	if s.maxDurationMonths > 0 && request.DurationMonths > s.maxDurationMonths {
		return nil, customError.WrapInvalidLoanTerms("duration exceeds the maximum allowed")
	}

	terms, err := utils.ComputeTerms(request.Amount, request.InterestRate, request.DurationMonths)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	credit := &domain.Credit{
		ID:             uuid.New(),
		UserID:         userID,
		ClientName:     strings.TrimSpace(request.ClientName),
		ClientEmail:    strings.TrimSpace(request.ClientEmail),
		Amount:         request.Amount,
		InterestRate:   request.InterestRate,
		DurationMonths: request.DurationMonths,
		MonthlyPayment: terms.MonthlyPayment,
		TotalInterest:  terms.TotalInterest,
		TotalAmount:    terms.TotalAmount,
		StartDate:      request.StartDate.OrDefault(now),
		Status:         domain.CreditStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.credits.Create(ctx, credit); err != nil {
		return nil, customError.WrapStorageFailure(err)
	}

	s.metrics.CreditsCreated.Inc()
	invalidate(ctx, s.cache, s.log, userID)

	s.log.WithFields(logrus.Fields{
		"credit_id":       credit.ID,
		"user_id":         userID,
		"monthly_payment": utils.FormatMoney(credit.MonthlyPayment),
		"duration_months": credit.DurationMonths,
	}).Info("credit created")

	return credit, nil
}

// ListCredits returns the credits of userID, newest first. The cache version is
// read before the store so a write committed in between voids the fill.
func (s *CreditService) ListCredits(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, error) {
	cached, hit, err := s.cache.GetCredits(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("credit cache read failed")
	}
	if hit {
		return cached, nil
	}

	version, versionErr := s.cache.Version(ctx, userID)
	if versionErr != nil {
		s.log.WithError(versionErr).WithField("user_id", userID).Warn("credit cache version read failed")
	}

	credits, err := s.credits.ListByUser(ctx, userID)
	if err != nil {
		return nil, customError.WrapStorageFailure(err)
	}

	if versionErr != nil {
		return credits, nil
	}
	if err := s.cache.SetCredits(ctx, userID, version, credits); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("credit cache write failed")
	}

	return credits, nil
}

// GetCredit returns a single credit.
func (s *CreditService) GetCredit(ctx context.Context, creditID uuid.UUID) (*domain.Credit, error) {
	credit, err := s.credits.GetByID(ctx, creditID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapCreditNotFound(creditID.String())
	}
	if err != nil {
		return nil, customError.WrapStorageFailure(err)
	}
	return credit, nil
}

// invalidate drops the cached list of a user. The write it follows is already
// committed, so a cache failure is logged and left to expire by TTL.
func invalidate(ctx context.Context, cache repository.CreditCache, log logrus.FieldLogger, userID uuid.UUID) {
	if err := cache.Invalidate(ctx, userID); err != nil {
		log.WithError(customError.WrapCacheError(err)).WithField("user_id", userID).Warn("credit cache invalidation failed")
	}
}
