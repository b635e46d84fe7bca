package http

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReady fails when the database is unreachable. The broker is
// reported but does not gate readiness since publishing is best effort.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Checks["database"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["database"] = "up"
		}
	}

	switch {
	case s.broker == nil:
		resp.Checks["broker"] = "disabled"
	case s.broker.Healthy():
		resp.Checks["broker"] = "up"
	default:
		resp.Checks["broker"] = "down"
	}

	writeJSON(w, status, resp)
}
