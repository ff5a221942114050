// Package middleware holds core-module HTTP middleware. Authentication
// itself is delegated to the identity-aware proxy in front of the app; this
// package only resolves the user the proxy already verified.
package middleware

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/user"
	"github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/composables"
)

// AuthHeader carries the verified principal email set by the upstream proxy.
const AuthHeader = "X-Auth-Email"

// WithTrustedHeaderUser resolves the proxy-verified email to a local user and
// puts it on the request context. Requests without the header, or with an
// email no user matches, proceed unauthenticated; authorization guards
// downstream decide what anonymous callers may do.
func WithTrustedHeaderUser(app application.Application) mux.MiddlewareFunc {
	userService := app.Service(services.UserService{}).(*services.UserService)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := r.Header.Get(AuthHeader)
			if email == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := userService.GetByEmail(r.Context(), email)
			if err != nil {
				if !errors.Is(err, user.ErrNotFound) {
					logger, ok := composables.UseLoggerOk(r.Context())
					if ok {
						logger.WithError(err).Warn("failed to resolve authenticated user")
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := composables.WithUser(r.Context(), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
