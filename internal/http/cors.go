package http

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsPreflightMaxAge is how long a browser may cache a preflight answer.
const corsPreflightMaxAge = 10 * time.Minute

// dashboardCORS returns the CORS policy for the browser dashboard, or nil when CORS is off or
// no usable origin is configured. The dashboard authenticates with a bearer token, so
// cookies are never allowed across origins.
func dashboardCORS(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := dashboardOrigins(allowOrigins, logger)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no valid origins configured, CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           corsPreflightMaxAge,
	})
}

// dashboardOrigins keeps the comma-separated entries that are bare http(s) origins. Wildcards
// and entries with a path, query or user info are dropped with a warning.
func dashboardOrigins(allowOrigins string, logger *slog.Logger) []string {
	var origins []string
	for _, part := range strings.Split(allowOrigins, ",") {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" {
			continue
		}
		if !validOrigin(origin) {
			logger.Warn("ignoring invalid CORS origin", slog.String("origin", origin))
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

func validOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") &&
		u.Host != "" &&
		u.User == nil &&
		u.Path == "" &&
		u.RawQuery == "" &&
		u.Fragment == "" &&
		!strings.Contains(u.Host, "*")
}
