package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/siamex/siamex/internal/ledger"
)

const minPasswordLength = 8

// Service manages account lifecycle: registration provisions the user's full
// wallet set, authentication verifies credentials.
type Service struct {
	repo    Repository
	wallets ledger.Ledger
}

// NewService creates a new identity service.
func NewService(repo Repository, wallets ledger.Ledger) *Service {
	return &Service{repo: repo, wallets: wallets}
}

// Register creates an ACTIVE user with a hashed password and one zero-balance
// wallet per supported currency. Wallet creation is conflict-tolerant, so a
// registration that failed after the user row was written can be retried.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, errors.New("a valid email is required")
	}
	if len(reg.Password) < minPasswordLength {
		return User{}, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	if _, err := s.wallets.CreateWalletSet(ctx, user.ID); err != nil {
		return User{}, fmt.Errorf("provision wallets: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials and account status.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		return User{}, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, errors.New("invalid email or password")
	}
	if user.Status != StatusActive {
		return User{}, errors.New("account is not active")
	}
	return user, nil
}

// Profile returns the user together with their wallets.
func (s *Service) Profile(ctx context.Context, userID string) (User, []ledger.Wallet, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return User{}, nil, err
	}
	wallets, err := s.wallets.WalletsByUser(ctx, userID)
	if err != nil {
		return User{}, nil, err
	}
	return user, wallets, nil
}
