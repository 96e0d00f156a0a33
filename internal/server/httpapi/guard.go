package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bookmarker/internal/common"
	"github.com/dmitrijs2005/bookmarker/internal/logging"
	"github.com/dmitrijs2005/bookmarker/internal/server/auth"
)

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Guard admits only requests carrying a valid bearer token and stores the
// decoded identity in the request context. Every rejection gets the same
// 401 body; the reason is only logged.
func Guard(issuer TokenValidator, logger logging.Logger) func(http.Handler) http.Handler {
	logger = logger.With("module", "guard")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
			if err != nil {
				logger.Warn(r.Context(), "request rejected", "path", r.URL.Path, "reason", err)
				writeUnauthorized(w)
				return
			}

			claims, err := issuer.Validate(token)
			if err != nil {
				logger.Warn(r.Context(), "request rejected", "path", r.URL.Path, "reason", err)
				writeUnauthorized(w)
				return
			}

			ctx := auth.WithIdentity(r.Context(), claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", common.ErrTokenMissing
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", common.ErrTokenMalformed
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.ErrTokenMissing
	}
	return token, nil
}
