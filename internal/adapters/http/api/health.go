package api

import (
	"net/http"

	"github.com/okian/hydroskill/pkg/metrics"
)

// handleHealth handles GET /healthz by serving the Prometheus exposition of
// the service registry.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}
