package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ticketera/helpdesk-service/internal/auth"
	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/repository"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// AuthService coordinates login and token refresh.
type AuthService struct {
	accounts repository.AccountRepository
	tokenMgr *auth.TokenManager
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo  repository.AccountRepository
	TokenManager *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts: deps.AccountRepo,
		tokenMgr: deps.TokenManager,
	}
}

var errInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// Login authenticates an account by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Account, auth.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, auth.TokenPair{}, apperrors.NewValidationError("username and password required", nil)
	}
	account, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.TokenPair{}, errInvalidCredentials
	}
	if err != nil {
		return nil, auth.TokenPair{}, apperrors.MapError(err)
	}
	if !account.Active {
		return nil, auth.TokenPair{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, auth.TokenPair{}, errInvalidCredentials
	}
	pair, err := s.tokenMgr.IssuePair(account.ID, account.IsSuperuser)
	if err != nil {
		return nil, auth.TokenPair{}, apperrors.NewInternalError(err)
	}
	return account, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The account is reloaded so a disabled account
// or a revoked superuser flag takes effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.tokenMgr.ParseToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return auth.TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
	}
	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
	}
	if err != nil {
		return auth.TokenPair{}, apperrors.MapError(err)
	}
	if !account.Active {
		return auth.TokenPair{}, apperrors.NewUnauthorized("account disabled")
	}
	pair, err := s.tokenMgr.IssuePair(account.ID, account.IsSuperuser)
	if err != nil {
		return auth.TokenPair{}, apperrors.NewInternalError(err)
	}
	return pair, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
