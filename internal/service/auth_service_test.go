package service

import (
	"context"
	"testing"
	"time"

	"budgetdesk/internal/model"
	"budgetdesk/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture() (AuthService, *fakeUserRepo) {
	userRepo := newFakeUserRepo()
	return NewAuthService(userRepo, fakeTxManager{}), userRepo
}

func seedAccount(t *testing.T, userRepo *fakeUserRepo, email, password string) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return userRepo.add(&model.User{
		Email:    email,
		Password: string(hashed),
		FullName: "Seeded",
		Role:     model.SystemRoleUser,
		IsActive: true,
	})
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, userRepo := newAuthFixture()

	tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "new@corp.test",
		Password: "secret1",
		FullName: "New Hire",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, model.SystemRoleUser, tokens.User.Role, "self-registration never grants elevated roles")

	_, err = userRepo.GetByEmail(context.Background(), "new@corp.test")
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, userRepo := newAuthFixture()
	seedAccount(t, userRepo, "dup@corp.test", "secret1")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "dup@corp.test",
		Password: "secret1",
		FullName: "Dup",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, userRepo := newAuthFixture()
	seedAccount(t, userRepo, "user@corp.test", "secret1")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "user@corp.test", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	assert.Equal(t, "invalid email or password", err.Error(), "does not reveal which part was wrong")
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, userRepo := newAuthFixture()
	user := seedAccount(t, userRepo, "gone@corp.test", "secret1")
	user.IsActive = false

	_, err := svc.Login(context.Background(), LoginRequest{Email: "gone@corp.test", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, userRepo := newAuthFixture()
	seedAccount(t, userRepo, "user@corp.test", "secret1")

	tokens, err := svc.Login(context.Background(), LoginRequest{Email: "user@corp.test", Password: "secret1"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The old refresh token is single-use.
	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, userRepo := newAuthFixture()
	user := seedAccount(t, userRepo, "user@corp.test", "secret1")
	require.NoError(t, userRepo.CreateRefreshToken(context.Background(), &model.RefreshToken{
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := svc.Refresh(context.Background(), "stale")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = userRepo.GetRefreshToken(context.Background(), "stale")
	assert.Error(t, err, "expired token is purged")
}

func TestGetProfileScopedToSelf(t *testing.T) {
	svc, userRepo := newAuthFixture()
	target := seedAccount(t, userRepo, "target@corp.test", "secret1")

	_, err := svc.GetProfile(context.Background(), memberIdentity(), target.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	profile, err := svc.GetProfile(context.Background(), adminIdentity(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "target@corp.test", profile.Email)
}

func TestUpdateProfileChangesPassword(t *testing.T) {
	svc, userRepo := newAuthFixture()
	user := seedAccount(t, userRepo, "user@corp.test", "secret1")
	ident := memberIdentity()
	ident.ID = user.ID

	_, err := svc.UpdateProfile(context.Background(), ident, user.ID, UpdateProfileRequest{Password: "secret2"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "user@corp.test", Password: "secret2"})
	assert.NoError(t, err)
	_, err = svc.Login(context.Background(), LoginRequest{Email: "user@corp.test", Password: "secret1"})
	assert.Error(t, err)
}

func TestLogoutDeletesRefreshToken(t *testing.T) {
	svc, userRepo := newAuthFixture()
	require.NoError(t, userRepo.CreateRefreshToken(context.Background(), &model.RefreshToken{
		UserID:    uuid.New(),
		Token:     "live",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, svc.Logout(context.Background(), "live"))
	_, err := userRepo.GetRefreshToken(context.Background(), "live")
	assert.Error(t, err)
}
