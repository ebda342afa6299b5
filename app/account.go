package app

import (
	"context"
	"errors"
	"strings"

	"github.com/Heht571/LLMRouter/ports"
)

// AccountService handles registration, login and credential changes.
type AccountService struct {
	accounts ports.AccountStore
	hasher   ports.Hasher
	idGen    ports.IDGenerator
	clock    ports.Clock
}

// AccountDeps contains dependencies for AccountService.
type AccountDeps struct {
	Accounts ports.AccountStore
	Hasher   ports.Hasher
	IDGen    ports.IDGenerator
	Clock    ports.Clock
}

// NewAccountService creates a new account service.
func NewAccountService(deps AccountDeps) *AccountService {
	return &AccountService{
		accounts: deps.Accounts,
		hasher:   deps.Hasher,
		idGen:    deps.IDGen,
		clock:    deps.Clock,
	}
}

// RegisterParams contains parameters for creating an account.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Role     ports.Role
}

func validateRegister(p RegisterParams) string {
	if strings.TrimSpace(p.Username) == "" {
		return "empty_username"
	}
	if !strings.Contains(p.Email, "@") {
		return "invalid_email"
	}
	if len(p.Password) < 8 {
		return "password_too_short"
	}
	if !ports.ValidRole(p.Role) {
		return "invalid_role"
	}
	return ""
}

// Register creates a new seller or buyer account.
func (s *AccountService) Register(ctx context.Context, p RegisterParams) (ports.Account, error) {
	if reason := validateRegister(p); reason != "" {
		return ports.Account{}, Validation(reason)
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return ports.Account{}, err
	}

	now := s.clock.Now()
	account := ports.Account{
		ID:           s.idGen.New(),
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: hash,
		Role:         p.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return ports.Account{}, ErrConflict
		}
		return ports.Account{}, err
	}
	return account, nil
}

// Login verifies a username and password.
// Lookup failures and hash mismatches are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, username, password string) (ports.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ports.Account{}, ErrInvalidCredentials
		}
		return ports.Account{}, err
	}
	if !s.hasher.Compare(account.PasswordHash, password) {
		return ports.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// Get retrieves an account by ID.
func (s *AccountService) Get(ctx context.Context, id string) (ports.Account, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ports.Account{}, ErrNotFound
		}
		return ports.Account{}, err
	}
	return account, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !s.hasher.Compare(account.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if len(next) < 8 {
		return Validation("password_too_short")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePassword(ctx, id, hash, s.clock.Now())
}
