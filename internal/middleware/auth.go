package middleware

import (
	"strings"

	"storefront-api/internal/apperror"
	"storefront-api/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// TokenClaims mirrors the access token issued by the identity provider.
type TokenClaims struct {
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Auth verifies the HS256 bearer token, syncs the caller profile and stores
// the resolved identity on the request context.
func Auth(jwtSecret string, userService service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok || jwtSecret == "" {
				return apperror.Unauthorized("access token required")
			}

			var claims TokenClaims
			_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				return &apperror.Error{Kind: apperror.KindUnauthorized, Message: "invalid or expired token", Err: err}
			}

			phone := claims.UserMetadata.Phone
			if phone == "" {
				phone = claims.Phone
			}

			identity, err := userService.SyncProfile(c.Request().Context(), service.ProfileClaims{
				Subject:   claims.Subject,
				Email:     claims.Email,
				FullName:  claims.UserMetadata.FullName,
				Name:      claims.UserMetadata.Name,
				Phone:     phone,
				AvatarURL: claims.UserMetadata.AvatarURL,
			})
			if err != nil {
				return err
			}

			SetIdentity(c, identity)
			return next(c)
		}
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := CurrentIdentity(c)
			if err != nil {
				return err
			}
			if !identity.IsAdmin {
				return apperror.Forbidden("admin access required")
			}
			return next(c)
		}
	}
}

func CurrentIdentity(c echo.Context) (*service.Identity, error) {
	identity, ok := c.Get(identityKey).(*service.Identity)
	if !ok || identity == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	return identity, nil
}

func SetIdentity(c echo.Context, identity *service.Identity) {
	c.Set(identityKey, identity)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
