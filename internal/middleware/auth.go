package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/barberia/backend/internal/auth"
	"github.com/barberia/backend/internal/httpx"
	"github.com/barberia/backend/internal/repositories"
	"github.com/rs/zerolog"
)

type contextKey byte

const claimsKey = contextKey(1)

// Authenticate verifies the bearer token on incoming requests. A missing
// credential is 401; a present but invalid, expired, or revoked one is 403.
// On success the verified claims are attached to the request context.
func Authenticate(tokens *auth.TokenService, denylist repositories.TokenDenylist, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth_middleware").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractBearer(r)
			if tokenStr == "" {
				httpx.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				// Expired and tampered tokens get the same response, but
				// the distinction is kept in the logs.
				logger.Debug().Err(err).Msg("token rejected")
				httpx.Error(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			if denylist != nil {
				revoked, err := denylist.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Warn().Err(err).Msg("denylist check failed")
				} else if revoked {
					logger.Debug().Str("token_id", claims.ID).Msg("revoked token rejected")
					httpx.Error(w, http.StatusForbidden, "invalid or expired token")
					return
				}
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims attached by Authenticate, or nil when
// the request did not pass through it.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
