package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/domain"
	customError "github.com/segyhp/credit-engine/pkg/errors"
	"github.com/segyhp/credit-engine/pkg/response"
	"github.com/segyhp/credit-engine/pkg/utils"
)

// CreditService is the credit lifecycle used by the HTTP layer.
type CreditService interface {
	CreateCredit(ctx context.Context, userID uuid.UUID, request *domain.CreateCreditRequest) (*domain.Credit, error)
	ListCredits(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, error)
	GetCredit(ctx context.Context, creditID uuid.UUID) (*domain.Credit, error)
}

// LedgerService records and removes payments.
type LedgerService interface {
	ApplyPayment(ctx context.Context, request *domain.ApplyPaymentRequest) (*domain.Payment, *domain.Credit, error)
	RemoveCredit(ctx context.Context, creditID uuid.UUID) error
	ListPayments(ctx context.Context, creditID uuid.UUID) ([]*domain.Payment, error)
}

type CreditHandler struct {
	credits   CreditService
	ledger    LedgerService
	validator *validator.Validate
	log       logrus.FieldLogger
}

func NewCreditHandler(credits CreditService, ledger LedgerService, log logrus.FieldLogger) *CreditHandler {
	return &CreditHandler{
		credits:   credits,
		ledger:    ledger,
		validator: NewValidator(),
		log:       log,
	}
}

var creditTermFields = fieldErrors{
	"Amount":         invalidTerms,
	"InterestRate":   invalidTerms,
	"DurationMonths": invalidTerms,
}

var paymentAmountFields = fieldErrors{
	"Amount": invalidAmount,
}

// CreateCredit handles POST /credits for the authenticated user.
func (h *CreditHandler) CreateCredit(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var request domain.CreateCreditRequest
	if err := decodeAndValidate(h.validator, r, &request, creditTermFields); err != nil {
		writeError(w, h.log, err)
		return
	}

	credit, err := h.credits.CreateCredit(r.Context(), userID, &request)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	response.Created(w, domain.CreateCreditResponse{
		CreditID:       credit.ID,
		MonthlyPayment: utils.FormatMoney(credit.MonthlyPayment),
		TotalInterest:  utils.FormatMoney(credit.TotalInterest),
		TotalAmount:    utils.FormatMoney(credit.TotalAmount),
	})
}

// ListOwnCredits handles GET /credits.
func (h *CreditHandler) ListOwnCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	h.listCredits(w, r, userID)
}

// ListUserCredits handles GET /users/{userId}/credits.
func (h *CreditHandler) ListUserCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}
	h.listCredits(w, r, userID)
}

func (h *CreditHandler) listCredits(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	credits, err := h.credits.ListCredits(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.Success(w, domain.NewCreditResponses(credits))
}

// GetCredit handles GET /credits/{creditId}.
func (h *CreditHandler) GetCredit(w http.ResponseWriter, r *http.Request) {
	creditID, ok := h.pathID(w, r, "creditId")
	if !ok {
		return
	}

	credit, err := h.credits.GetCredit(r.Context(), creditID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.Success(w, domain.NewCreditResponse(credit))
}

// ListPayments handles GET /credits/{creditId}/payments.
func (h *CreditHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	creditID, ok := h.pathID(w, r, "creditId")
	if !ok {
		return
	}

	payments, err := h.ledger.ListPayments(r.Context(), creditID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.Success(w, domain.PaymentsResponse{CreditID: creditID, Payments: payments})
}

// RemoveCredit handles DELETE /credits/{creditId}. Unknown ids succeed.
func (h *CreditHandler) RemoveCredit(w http.ResponseWriter, r *http.Request) {
	creditID, ok := h.pathID(w, r, "creditId")
	if !ok {
		return
	}

	if err := h.ledger.RemoveCredit(r.Context(), creditID); err != nil {
		writeError(w, h.log, err)
		return
	}
	response.Success(w, map[string]bool{"success": true})
}

// ApplyPayment handles POST /payments.
func (h *CreditHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	var request domain.ApplyPaymentRequest
	if err := decodeAndValidate(h.validator, r, &request, paymentAmountFields); err != nil {
		writeError(w, h.log, err)
		return
	}

	payment, credit, err := h.ledger.ApplyPayment(r.Context(), &request)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	response.Created(w, domain.ApplyPaymentResponse{
		Payment:    payment,
		PaidMonths: credit.PaidMonths,
		PaidAmount: credit.PaidAmount,
		Message:    "payment recorded",
	})
}

func (h *CreditHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, h.log, customError.NewBusinessError(customError.ErrCodeValidation, name+" must be a UUID", customError.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}
