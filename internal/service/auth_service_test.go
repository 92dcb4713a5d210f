package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/identity"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func newAuthFixture() (*AuthService, *mockUserRepo, *mockGrantRepo) {
	users := newMockUserRepo()
	grants := newMockGrantRepo()
	svc := NewAuthService(AuthDependencies{
		UserRepo:   users,
		GrantRepo:  grants,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		BcryptCost: bcrypt.MinCost,
	})
	return svc, users, grants
}

func TestRegisterCreatesUserWithSelfGrant(t *testing.T) {
	svc, _, grants := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ADA@Test.io", Password: "hunter2222"})
	require.NoError(t, err)
	assert.Equal(t, "ada@test.io", user.Email)
	assert.True(t, user.Active)

	held, err := grants.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, domain.RoleUser, held[0].Role)
}

func TestRegisterRejectsShortPasswordAndDuplicates(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@test.io", Password: "short"})
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))

	_, err = svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@test.io", Password: "hunter2222"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "Eve", Email: "a@test.io", Password: "hunter2222"})
	assert.True(t, apperrors.IsKind(err, "CONFLICT"))
}

func TestLoginIssuesTokenWithGrantSnapshot(t *testing.T) {
	svc, _, grants := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@test.io", Password: "hunter2222"})
	require.NoError(t, err)
	require.NoError(t, grants.Create(ctx, user.ID, domain.Grant{
		Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a"),
	}))

	result, err := svc.Login(ctx, "a@test.io", "hunter2222")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	tokens := auth.NewTokenManager("test-secret", 60)
	claims, err := tokens.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Len(t, claims.Grants, 2)

	principal, err := identity.Resolve(claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@test.io", Password: "hunter2222"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@test.io", "wrongwrong")
	assert.True(t, apperrors.IsKind(err, "AUTHENTICATION_FAILED"))
	_, err = svc.Login(ctx, "ghost@test.io", "hunter2222")
	assert.True(t, apperrors.IsKind(err, "AUTHENTICATION_FAILED"))
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@test.io", Password: "hunter2222"})
	require.NoError(t, err)

	user.Active = false
	require.NoError(t, users.Update(ctx, user))

	_, err = svc.Login(ctx, "a@test.io", "hunter2222")
	assert.True(t, apperrors.IsKind(err, "AUTHENTICATION_FAILED"))
}
