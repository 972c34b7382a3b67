package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles signup and login.
type AuthService struct {
	users repository.UserRepository
}

// SignupInput is the body of POST /api/auth/signup.
type SignupInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Username string
	Password string
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Signup creates an account. Uniqueness is checked up front for a precise
// message; a concurrent signup that slips past the check is still rejected
// by the store's unique index.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.RequireFields(
		"fullName", in.FullName,
		"username", in.Username,
		"email", in.Email,
		"password", in.Password,
	); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError("Invalid email format")
	}

	if err := s.ensureFree(ctx, s.users.GetByUsername, in.Username, "Username is already taken"); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, s.users.GetByEmail, in.Email, "Email is already taken"); err != nil {
		return nil, err
	}

	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(passwordTooShort)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		FullName: in.FullName,
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	observability.AuthEvents.WithLabelValues("signup").Inc()
	return sanitize(user), nil
}

func (s *AuthService) ensureFree(ctx context.Context, lookup func(context.Context, string) (*models.User, error), value, taken string) error {
	_, err := lookup(ctx, value)
	if err == nil {
		return models.NewConflictError(taken)
	}
	if models.IsNotFound(err) {
		return nil
	}
	return err
}

// Login checks the credentials. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if models.IsNotFound(err) {
			observability.AuthEvents.WithLabelValues("login_failure").Inc()
			return nil, models.NewInvalidCredentialsError()
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		observability.AuthEvents.WithLabelValues("login_failure").Inc()
		return nil, models.NewInvalidCredentialsError()
	}

	observability.AuthEvents.WithLabelValues("login_success").Inc()
	return sanitize(user), nil
}
