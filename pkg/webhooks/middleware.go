package webhooks

import (
	"context"
	"crypto/hmac"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/villagepulse/villagepulse/pkg/httpapi"
)

// SecretVerifier authenticates machine-to-machine entry points such as the
// scheduled sync trigger.
type SecretVerifier interface {
	Verify(ctx context.Context, r *http.Request) error
}

var (
	ErrMissingToken = errors.New("missing trigger token")
	ErrInvalidToken = errors.New("invalid trigger token")
)

// TokenVerifier compares a shared secret carried in a request header using a
// constant-time comparison.
type TokenVerifier struct {
	Header string
	Secret string
}

func NewTokenVerifier(header, secret string) *TokenVerifier {
	if strings.TrimSpace(header) == "" {
		header = "X-Sync-Token"
	}
	return &TokenVerifier{Header: header, Secret: secret}
}

func (v *TokenVerifier) Verify(_ context.Context, r *http.Request) error {
	if strings.TrimSpace(v.Secret) == "" {
		return errors.New("trigger secret is not configured")
	}
	token := r.Header.Get(v.Header)
	if token == "" {
		return ErrMissingToken
	}
	if !hmac.Equal([]byte(token), []byte(v.Secret)) {
		return ErrInvalidToken
	}
	return nil
}

// Middleware rejects requests the verifier does not accept.
func Middleware(verifier SecretVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "TRIGGER_MISCONFIGURED", "trigger middleware misconfigured", nil)
				return
			}
			if err := verifier.Verify(r.Context(), r); err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "TRIGGER_UNAUTHORIZED", "invalid trigger token", map[string]string{
					"error": err.Error(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
