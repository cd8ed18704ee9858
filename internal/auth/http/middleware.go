package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/finboard/finboard/internal/auth/domain"
	authService "github.com/finboard/finboard/internal/auth/service"
	"github.com/finboard/finboard/internal/httputil"
)

// AuthenticationMiddleware verifies the Bearer token in the Authorization header and stores
// the resulting principal in the request context.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer"). Missing,
// malformed or rejected tokens produce 401 Unauthorized.
//
// Usage:
//
//	router.Use(AuthenticationMiddleware(verifier, logger))
//	router.GET("/v1/items", func(c *gin.Context) {
//	    principal, _ := GetPrincipal(c.Request.Context())
//	    // principal.UserID scopes every query
//	})
func AuthenticationMiddleware(verifier authService.TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, authDomain.ErrMissingToken, logger)
			c.Abort()
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		logger.Debug("authentication successful", slog.String("user_id", principal.UserID))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const bearerPrefix = "bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
