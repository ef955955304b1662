package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	customError "github.com/segyhp/credit-engine/pkg/errors"
	"github.com/segyhp/credit-engine/pkg/response"
)

// writeError maps an error kind to its HTTP status. Anything unrecognised is a 500
// and its details stay in the log.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		log.WithError(err).Error("unhandled error")
		response.InternalServerError(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	switch {
	case errors.Is(err, customError.ErrInvalidLoanTerms),
		errors.Is(err, customError.ErrInvalidPaymentAmount),
		errors.Is(err, customError.ErrValidation):
		response.BadRequest(w, be.Code, be.Message)
	case errors.Is(err, customError.ErrCreditNotFound):
		response.NotFound(w, be.Code, be.Message)
	case errors.Is(err, customError.ErrCreditSettled):
		response.Error(w, http.StatusConflict, be.Code, be.Message)
	case errors.Is(err, customError.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, be.Code, be.Message)
	default:
		log.WithError(err).Error("request failed")
		response.InternalServerError(w, be.Code, be.Message)
	}
}
