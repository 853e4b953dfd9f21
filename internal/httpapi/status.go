package httpapi

import "net/http"

// handleStatusAdapters serves GET /status/adapters: the registered matrix
// adapter names.
func (s *Server) handleStatusAdapters(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{"adapters": s.app.AdapterNames()})
}

// handleStatusSolvers serves GET /status/solvers: the registered solver
// engine names.
func (s *Server) handleStatusSolvers(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{"solvers": s.app.EngineNames()})
}

// handleCapabilities serves GET /capabilities: both registries in one call,
// for clients that want a single introspection round trip.
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"adapters": s.app.AdapterNames(),
		"solvers":  s.app.EngineNames(),
	})
}
