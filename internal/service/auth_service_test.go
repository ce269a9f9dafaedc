package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/committee-api/internal/models"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
)

type mockAdminRepo struct {
	admins    map[string]models.Admin
	lastLogin map[string]time.Time
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{admins: map[string]models.Admin{}, lastLogin: map[string]time.Time{}}
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	for _, admin := range m.admins {
		if admin.Email == email {
			found := admin
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	if admin, ok := m.admins[id]; ok {
		return &admin, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin[id] = ts
	return nil
}

func (m *mockAdminRepo) seed(t *testing.T, id, email, password string, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	m.admins[id] = models.Admin{ID: id, Email: email, PasswordHash: string(hash), FullName: "Test Admin", Active: active}
}

func newAuthService(repo *mockAdminRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "committee-api"})
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newMockAdminRepo()
	repo.seed(t, "admin-1", "admin@example.org", "s3cret-pass", true)
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, int64(3600), resp.ExpiresIn)
	require.Equal(t, "admin-1", resp.Admin.ID)
	require.Contains(t, repo.lastLogin, "admin-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin-1", claims.AdminID)
	require.Equal(t, "admin@example.org", claims.Email)
	require.Equal(t, "committee-api", claims.Issuer)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAdminRepo()
	repo.seed(t, "admin-1", "admin@example.org", "s3cret-pass", true)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(newMockAdminRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.org", Password: "whatever"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newMockAdminRepo()
	repo.seed(t, "admin-1", "admin@example.org", "s3cret-pass", false)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	svc := newAuthService(newMockAdminRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := newMockAdminRepo()
	repo.seed(t, "admin-1", "admin@example.org", "s3cret-pass", true)
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{Secret: "different-secret", Expiration: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(newMockAdminRepo())

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
