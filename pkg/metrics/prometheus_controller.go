// Package metrics exposes the Prometheus scrape endpoint as a regular
// application controller so the bootstrap can toggle it from configuration.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/villagepulse/villagepulse/pkg/application"
)

const defaultPath = "/debug/prometheus"

type PrometheusController struct {
	path string
}

// NewPrometheusController serves the default registry at path. An empty path
// falls back to /debug/prometheus.
func NewPrometheusController(path string) application.Controller {
	if path == "" {
		path = defaultPath
	}
	return &PrometheusController{path: path}
}

func (c *PrometheusController) Key() string {
	return c.path
}

func (c *PrometheusController) Register(r *mux.Router) {
	r.Handle(c.path, promhttp.Handler()).Methods(http.MethodGet)
}
