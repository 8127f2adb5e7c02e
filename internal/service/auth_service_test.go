package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ticketera/helpdesk-service/internal/auth"
	"github.com/ticketera/helpdesk-service/internal/domain"
	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *fakeAccounts) {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse", bcrypt.MinCost)
	require.NoError(t, err)
	accounts := &fakeAccounts{items: map[string]*domain.Account{
		"acc-1": {ID: "acc-1", Username: "ana", PasswordHash: hash, Active: true},
		"acc-2": {ID: "acc-2", Username: "root", PasswordHash: hash, Active: true, IsSuperuser: true},
		"acc-3": {ID: "acc-3", Username: "gone", PasswordHash: hash, Active: false},
	}}
	svc := NewAuthService(AuthDependencies{
		AccountRepo:  accounts,
		TokenManager: auth.NewTokenManager("test-secret", 15, 24),
	})
	return svc, accounts
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	account, pair, err := svc.Login(ctx, " root ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "acc-2", account.ID)
	claims, err := svc.TokenManager().ParseToken(pair.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "acc-2", claims.Subject)
	assert.True(t, claims.Superuser)

	tests := []struct {
		name     string
		username string
		password string
		code     string
	}{
		{"wrong password", "ana", "incorrect", apperrors.CodeUnauthorized},
		{"unknown user", "nobody", "correct-horse", apperrors.CodeUnauthorized},
		{"inactive", "gone", "correct-horse", apperrors.CodeUnauthorized},
		{"missing fields", "", "", apperrors.CodeValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tc.username, tc.password)
			assert.True(t, apperrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestRefresh(t *testing.T) {
	svc, accounts := newAuthService(t)
	ctx := context.Background()
	_, pair, err := svc.Login(ctx, "ana", "correct-horse")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	accounts.items["acc-1"].Active = false
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
