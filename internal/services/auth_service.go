package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/barberia/backend/internal/auth"
	"github.com/barberia/backend/internal/models"
	"github.com/barberia/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWrongPassword      = errors.New("current password incorrect")
	ErrAccountNotFound    = errors.New("account not found")
)

const MinPasswordLength = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const lastAccessTimeout = 5 * time.Second

type AuthService struct {
	accountRepo repositories.AccountRepository
	denylist    repositories.TokenDenylist // nil disables revocation
	hasher      *auth.Hasher
	tokens      *auth.TokenService
	logger      zerolog.Logger
}

type RegisterRequest struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthResult is what a successful registration or login hands back: a fresh
// token and the public view of the account it asserts.
type AuthResult struct {
	Token   string
	Account models.AccountView
}

func NewAuthService(
	accountRepo repositories.AccountRepository,
	denylist repositories.TokenDenylist,
	hasher *auth.Hasher,
	tokens *auth.TokenService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		denylist:    denylist,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)

	// Validation order matters: first missing fields, then email shape,
	// then password agreement, then password length. No storage or hashing
	// happens until all of it passes.
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, ErrMissingFields
	}
	if !emailRe.MatchString(req.Email) {
		return nil, ErrInvalidEmail
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Fast-path duplicate check. The storage uniqueness constraint is what
	// actually guarantees this under concurrent registrations.
	existing, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	token, _, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResult{Token: token, Account: account.View()}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	account, err := s.accountRepo.GetActiveByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// Best-effort: the login response never waits on, or fails because of,
	// the last-access bookkeeping.
	go s.touchLastAccess(account.ID)

	token, _, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResult{Token: token, Account: account.View()}, nil
}

func (s *AuthService) CurrentAccount(ctx context.Context, id uuid.UUID) (*models.AccountView, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		// Token outlived the account: verification is stateless, so a
		// deleted account still presents a valid token until expiry.
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	view := account.View()
	return &view, nil
}

// ChangePassword re-verifies the current password before accepting the new
// one, so a stolen token alone is not enough to take over the account. The
// presenting token is revoked; other outstanding tokens expire naturally.
func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, claims *auth.Claims, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	account, err := s.accountRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !s.hasher.Verify(currentPassword, account.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.accountRepo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.revokeToken(ctx, claims)
	return nil
}

// DeleteAccount requires the current password for the same reason as
// ChangePassword. The target account always comes from the verified token,
// never from the request body.
func (s *AuthService) DeleteAccount(ctx context.Context, id uuid.UUID, claims *auth.Claims, password string) error {
	if password == "" {
		return ErrMissingFields
	}

	account, err := s.accountRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return ErrWrongPassword
	}

	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.revokeToken(ctx, claims)
	return nil
}

func (s *AuthService) touchLastAccess(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), lastAccessTimeout)
	defer cancel()

	if err := s.accountRepo.UpdateLastAccess(ctx, id); err != nil {
		s.logger.Warn().Err(err).Stringer("account_id", id).Msg("failed to update last access")
	}
}

func (s *AuthService) revokeToken(ctx context.Context, claims *auth.Claims) {
	if s.denylist == nil || claims == nil {
		return
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Warn().Err(err).Str("token_id", claims.ID).Msg("failed to revoke token")
	}
}
