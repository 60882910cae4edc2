package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/response"
)

// Gin context keys set by the auth middlewares.
const (
	CtxUserIDKey   = "userID"
	CtxEmailKey    = "userEmail"
	CtxRoleKey     = "userRole"
	CtxVerifiedKey = "userVerified"
	CtxTokenKey    = "presentedToken"
)

// TokenVerifier checks a signed token against the secret of its class.
type TokenVerifier interface {
	Verify(token string, class helpers.TokenClass) (*helpers.Claims, error)
}

// Auth validates the bearer access token and stores the caller identity in
// the Gin context.
func Auth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		if !authenticate(c, v, token, helpers.AccessToken) {
			return
		}
		c.Next()
	}
}

// RefreshCookie validates the refresh token carried in the http-only cookie.
// The raw token is kept in the context so the handler can match it against
// the stored record.
func RefreshCookie(v TokenVerifier, cookies *helpers.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookies.Refresh(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing refresh token", nil)
			return
		}
		if !authenticate(c, v, token, helpers.RefreshToken) {
			return
		}
		c.Next()
	}
}

// ResetToken validates the reset token taken from the :token path parameter.
func ResetToken(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Param("token"))
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing reset token", nil)
			return
		}
		if !authenticate(c, v, token, helpers.ResetToken) {
			return
		}
		c.Next()
	}
}

// authenticate aborts with 401 for an expired token and 403 for any other
// verification failure.
func authenticate(c *gin.Context, v TokenVerifier, token string, class helpers.TokenClass) bool {
	claims, err := v.Verify(token, class)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			response.Abort(c, http.StatusUnauthorized, class.String()+" token expired", nil)
		} else {
			response.Abort(c, http.StatusForbidden, "invalid "+class.String()+" token", nil)
		}
		return false
	}
	c.Set(CtxUserIDKey, claims.UserID)
	c.Set(CtxEmailKey, claims.Email)
	c.Set(CtxRoleKey, claims.Role)
	c.Set(CtxVerifiedKey, claims.Verified)
	c.Set(CtxTokenKey, token)
	return true
}

// RequireRole must run after Auth. It denies when the caller's role is not
// listed, or when requireVerified is set and the caller is unverified.
func RequireRole(requireVerified bool, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		permitted := false
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				permitted = true
				break
			}
		}
		if !permitted {
			response.Abort(c, http.StatusForbidden, "insufficient role", nil)
			return
		}
		if requireVerified && !c.GetBool(CtxVerifiedKey) {
			response.Abort(c, http.StatusForbidden, "email not verified", nil)
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id set by one of the auth middlewares.
func UserID(c *gin.Context) string { return c.GetString(CtxUserIDKey) }

// PresentedToken returns the raw token the request authenticated with.
func PresentedToken(c *gin.Context) string { return c.GetString(CtxTokenKey) }

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
