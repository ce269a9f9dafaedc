package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/committee-api/internal/models"
	"github.com/noah-isme/committee-api/internal/service"
)

type staticAdminRepo struct {
	admin models.Admin
}

func (r *staticAdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if r.admin.Email == email {
		admin := r.admin
		return &admin, nil
	}
	return nil, sql.ErrNoRows
}

func (r *staticAdminRepo) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	if r.admin.ID == id {
		admin := r.admin
		return &admin, nil
	}
	return nil, sql.ErrNoRows
}

func (r *staticAdminRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("pass-1234"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &staticAdminRepo{admin: models.Admin{ID: "admin-1", Email: "admin@example.org", PasswordHash: string(hash), Active: true}}
	authService := service.NewAuthService(repo, nil, nil, service.AuthConfig{Secret: "test-secret", Expiration: time.Hour})

	login, err := authService.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "pass-1234"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", JWT(authService), func(c *gin.Context) {
		claims, _ := c.Get(ContextAdminKey)
		admin := claims.(*models.AdminClaims)
		c.JSON(http.StatusOK, gin.H{"admin_id": admin.AdminID})
	})
	return r, login.AccessToken
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	r, token := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsBadToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTStoresClaims(t *testing.T) {
	r, token := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin-1")
}
