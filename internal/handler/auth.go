package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/domain"
	"github.com/segyhp/credit-engine/pkg/response"
)

// AuthService authenticates operators.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResponse, error)
}

type AuthHandler struct {
	auth      AuthService
	validator *validator.Validate
	log       logrus.FieldLogger
}

func NewAuthHandler(auth AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		validator: NewValidator(),
		log:       log,
	}
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request domain.LoginRequest
	if err := decodeAndValidate(h.validator, r, &request, nil); err != nil {
		writeError(w, h.log, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.Success(w, resp)
}
