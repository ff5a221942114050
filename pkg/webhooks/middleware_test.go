package webhooks

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func newRouter(verifier SecretVerifier) *mux.Router {
	r := mux.NewRouter()
	sub := r.PathPrefix("/hooks").Subrouter()
	sub.Use(Middleware(verifier))
	sub.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodPost)
	return r
}

func TestMiddleware_AcceptsValidToken(t *testing.T) {
	router := newRouter(NewTokenVerifier("X-Sync-Token", "s3cret"))

	req := httptest.NewRequest(http.MethodPost, "/hooks/sync", nil)
	req.Header.Set("X-Sync-Token", "s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestMiddleware_RejectsMissingAndWrongTokens(t *testing.T) {
	router := newRouter(NewTokenVerifier("X-Sync-Token", "s3cret"))

	req := httptest.NewRequest(http.MethodPost, "/hooks/sync", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/hooks/sync", nil)
	req.Header.Set("X-Sync-Token", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_RejectsUnconfiguredSecret(t *testing.T) {
	router := newRouter(NewTokenVerifier("X-Sync-Token", ""))

	req := httptest.NewRequest(http.MethodPost, "/hooks/sync", nil)
	req.Header.Set("X-Sync-Token", "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
