package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-api/internal/apperror"
	"storefront-api/internal/dto"
	"storefront-api/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token"

type fakeUserService struct {
	synced []service.ProfileClaims
}

func (f *fakeUserService) SyncProfile(ctx context.Context, claims service.ProfileClaims) (*service.Identity, error) {
	f.synced = append(f.synced, claims)
	return &service.Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Name:    claims.DisplayName(),
		IsAdmin: claims.Email == "admin@lazo.com",
	}, nil
}

func (f *fakeUserService) GetProfile(ctx context.Context, identity *service.Identity) (*dto.UserResponse, error) {
	return nil, nil
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(email string) TokenClaims {
	return TokenClaims{
		Email: email,
		UserMetadata: UserMetadata{
			FullName: "Ana Diaz",
			Phone:    "1144445555",
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func run(t *testing.T, users service.UserService, authHeader string, extra ...echo.MiddlewareFunc) (*service.Identity, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var got *service.Identity
	h := func(c echo.Context) error {
		identity, err := CurrentIdentity(c)
		got = identity
		return err
	}
	for i := len(extra) - 1; i >= 0; i-- {
		h = extra[i](h)
	}
	err := Auth(testSecret, users)(h)(c)
	return got, err
}

func TestAuthValidToken(t *testing.T) {
	users := &fakeUserService{}
	token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("ana@example.com"))

	identity, err := run(t, users, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "Ana Diaz", identity.Name)

	require.Len(t, users.synced, 1)
	assert.Equal(t, "ana@example.com", users.synced[0].Email)
	assert.Equal(t, "1144445555", users.synced[0].Phone)
}

func TestAuthRejectsBadTokens(t *testing.T) {
	expired := validClaims("ana@example.com")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Basic abc",
		"garbage":         "Bearer not-a-jwt",
		"wrong secret":    "Bearer " + signToken(t, "other-secret", jwt.SigningMethodHS256, validClaims("ana@example.com")),
		"wrong algorithm": "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, validClaims("ana@example.com")),
		"expired":         "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, expired),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			users := &fakeUserService{}
			_, err := run(t, users, header)
			require.Error(t, err)
			assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
			assert.Empty(t, users.synced)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	users := &fakeUserService{}

	token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("ana@example.com"))
	_, err := run(t, users, "Bearer "+token, RequireAdmin())
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	token = signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("admin@lazo.com"))
	identity, err := run(t, users, "Bearer "+token, RequireAdmin())
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin)
}
