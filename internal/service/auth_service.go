package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/segyhp/credit-engine/internal/domain"
	"github.com/segyhp/credit-engine/internal/repository"
	customError "github.com/segyhp/credit-engine/pkg/errors"
)

const tokenIssuer = "credit-engine"

// AuthService verifies operator credentials and issues the bearer tokens
// that carry the authenticated user id.
type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Login checks the password against the stored bcrypt hash and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapInvalidCredentials()
	}
	if err != nil {
		return nil, customError.WrapStorageFailure(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("email", user.Email).Warn("login rejected")
		return nil, customError.WrapInvalidCredentials()
	}

	expiresAt := s.now().Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return &domain.LoginResponse{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// ParseToken validates a bearer token and returns the user id it was issued for.
func (s *AuthService) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return userID, nil
}

// Provision creates an operator account if the email is not registered yet.
func (s *AuthService) Provision(ctx context.Context, email, password, name string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, customError.NewBusinessError(customError.ErrCodeValidation, "email and password are required", customError.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return false, customError.WrapStorageFailure(err)
	}

	if created {
		s.log.WithField("email", email).Info("user provisioned")
	} else {
		s.log.WithField("email", email).Info("user already exists, provisioning skipped")
	}
	return created, nil
}
