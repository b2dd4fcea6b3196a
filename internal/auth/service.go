package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"movie-favorites/internal/apperr"
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, email, passwordHash string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

type Service struct {
	users     UserStore
	hasher    PasswordHasher
	tokens    *TokenCodec
	dummyHash string
}

func NewService(users UserStore, hasher PasswordHasher, tokens *TokenCodec) (*Service, error) {
	dummyHash, err := hasher.Hash("movie-favorites-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummyHash,
	}, nil
}

func (s *Service) Signup(ctx context.Context, email, password string) (AuthResult, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return AuthResult{}, err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if exists {
		return AuthResult{}, apperr.ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.Create(ctx, email, hash)
	if err != nil {
		return AuthResult{}, err
	}

	return s.result(user)
}

func (s *Service) Signin(ctx context.Context, email, password string) (AuthResult, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn the same hashing cost as a real comparison.
			_ = s.hasher.Compare(s.dummyHash, password)
			return AuthResult{}, apperr.ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, errPasswordMismatch) {
			return AuthResult{}, apperr.ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("verify password for %s: %w", user.ID, err)
	}

	return s.result(user)
}

func (s *Service) result(user User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{ID: user.ID, Email: user.Email, Token: token}, nil
}

// validateCredentials returns the normalized email. The password is only
// checked for blankness, never trimmed.
func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperr.BadRequest("email and password are required")
	}
	return email, nil
}
