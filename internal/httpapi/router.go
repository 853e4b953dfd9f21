package httpapi

import (
	"net/http"
	"time"

	"github.com/vrprouting/vrp-service/internal/dispatch"
	"github.com/vrprouting/vrp-service/pkg/logger"
	"github.com/vrprouting/vrp-service/pkg/metrics"
)

// Server holds the one facade every handler calls through. It carries no
// other state; it is built once by main and handed to pkg/server as a plain
// http.Handler.
type Server struct {
	app *dispatch.App
	mux *http.ServeMux
}

// NewServer wires the full route table (§6) over app.
func NewServer(app *dispatch.App) *Server {
	s := &Server{app: app, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /distance-matrix", s.handleDistanceMatrix)
	s.mux.HandleFunc("POST /solver", s.handleSolver)
	s.mux.HandleFunc("GET /benchmarks", s.handleBenchmarks)
	s.mux.HandleFunc("GET /benchmarks/files", s.handleBenchmarkFiles)
	s.mux.HandleFunc("GET /benchmarks/find", s.handleBenchmarkFind)
	s.mux.HandleFunc("GET /benchmarks/load", s.handleBenchmarkLoad)
	s.mux.HandleFunc("GET /status/adapters", s.handleStatusAdapters)
	s.mux.HandleFunc("GET /status/solvers", s.handleStatusSolvers)
	s.mux.HandleFunc("GET /capabilities", s.handleCapabilities)
	s.mux.HandleFunc("GET /healthz", handleHealthz)

	return s
}

// ServeHTTP makes Server itself the http.Handler pkg/server.New expects,
// wrapping the route table with request logging and metrics recording.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	m := metrics.Get()
	m.Requests.Start(r.Method)
	start := time.Now()

	// The mux fills r.Pattern on a match, so the route label is read afterwards.
	s.mux.ServeHTTP(rec, r)

	duration := time.Since(start)
	m.Requests.End(r.Method)
	m.RecordHTTPRequest(r.Pattern, httpStatusClass(rec.status), duration)

	logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", duration.Milliseconds())
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{"status": "ok"})
}

// statusRecorder captures the status code written by the inner handler so it
// can be logged and recorded in metrics after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func httpStatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
