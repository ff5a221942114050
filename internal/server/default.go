package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	coremiddleware "github.com/villagepulse/villagepulse/modules/core/presentation/middleware"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/configuration"
	"github.com/villagepulse/villagepulse/pkg/httpapi"
	"github.com/villagepulse/villagepulse/pkg/middleware"
	"github.com/villagepulse/villagepulse/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger),

		middleware.TracedMiddleware("provide"),
		middleware.WithPageContext(app),
		middleware.ProvideLocalizer(app),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(options.Configuration.AllowedOrigins...),

		middleware.TracedMiddleware("requestParams"),
		middleware.RequestParams(),

		middleware.TracedMiddleware("auth"),
		coremiddleware.WithTrustedHeaderUser(app),
	}

	app.RegisterMiddleware(middlewares...)

	return server.NewHTTPServer(
		app,
		notFoundHandler(),
		methodNotAllowedHandler(),
	), nil
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", map[string]string{
			"path": r.URL.Path,
		})
	})
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", map[string]string{
			"path":   r.URL.Path,
			"method": r.Method,
		})
	})
}
