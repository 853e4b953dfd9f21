package httpapi

import (
	"net/http"

	"github.com/vrprouting/vrp-service/internal/vrp"
)

func (s *Server) handleSolver(w http.ResponseWriter, r *http.Request) {
	var req vrp.SolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	routes, err := s.app.Solve(r.Context(), &req, req.Waypoints)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Status:  "ok",
		Message: routes.Message,
		Data:    map[string]any{"routes": routes.Routes},
	})
}
