package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vrprouting/vrp-service/internal/adapters"
	"github.com/vrprouting/vrp-service/internal/index"
	"github.com/vrprouting/vrp-service/internal/parsers"
	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// handleBenchmarks serves GET /benchmarks: the dataset list.
func (s *Server) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.app.Index().Datasets()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]any{"datasets": datasets})
}

// handleBenchmarkFiles serves GET /benchmarks/files (§6): a paginated,
// filtered file listing within one dataset.
func (s *Server) handleBenchmarkFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dataset := q.Get("dataset")
	if dataset == "" {
		writeError(w, apperror.NewWithField(apperror.CodeInputInvalid, "dataset is required", "dataset"))
		return
	}

	opts := index.ListOptions{
		Filter: q.Get("q"),
		Kind:   q.Get("kind"),
		Sort:   index.SortField(defaultString(q.Get("sort"), string(index.SortByName))),
		Order:  index.Order(defaultString(q.Get("order"), string(index.OrderAsc))),
		Limit:  parseIntDefault(q.Get("limit"), 0),
		Offset: parseIntDefault(q.Get("offset"), 0),
	}
	if exts := q.Get("exts"); exts != "" {
		opts.Exts = strings.Split(exts, ",")
	}

	entries, err := s.app.Index().ListFiltered(dataset, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]any{"files": entries})
}

// handleBenchmarkFind serves GET /benchmarks/find: the instance/solution pair
// matching a file stem.
func (s *Server) handleBenchmarkFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dataset, name := q.Get("dataset"), q.Get("name")
	if dataset == "" || name == "" {
		writeError(w, apperror.New(apperror.CodeInputInvalid, "dataset and name are required"))
		return
	}

	instance, solution, err := s.app.Index().FindPair(dataset, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]any{"instance": instance, "solution": solution})
}

// handleBenchmarkLoad serves GET /benchmarks/load: parses the matched
// instance file into the canonical shape and, when compute_matrix=true and
// the instance carries no embedded matrix, builds one over the parsed
// waypoints (Euclidean over the planar solver space when they carry it,
// haversine over geographic coordinates otherwise).
func (s *Server) handleBenchmarkLoad(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dataset, name := q.Get("dataset"), q.Get("name")
	if dataset == "" || name == "" {
		writeError(w, apperror.New(apperror.CodeInputInvalid, "dataset and name are required"))
		return
	}

	entry, _, err := s.app.Index().FindPair(dataset, name)
	if err != nil {
		writeError(w, err)
		return
	}
	if entry == nil {
		writeError(w, apperror.New(apperror.CodeResourceNotFound, "no instance file found for "+name))
		return
	}

	instance, err := parseInstanceFile(entry.AbsPath)
	if err != nil {
		writeError(w, err)
		return
	}

	if instance.Matrix == nil && q.Get("compute_matrix") == "true" {
		m, err := computeMatrixFromWaypoints(r, s, instance.Waypoints)
		if err != nil {
			writeError(w, err)
			return
		}
		instance.Matrix = m
	}

	writeData(w, map[string]any{"instance": instance})
}

func parseInstanceFile(path string) (*vrp.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeResourceNotFound, "failed to open instance file")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".vrp":
		return parsers.NewPlanar().Parse(f)
	case ".txt":
		return parsers.NewSolomon().Parse(f)
	case ".xml":
		return parsers.NewXML().Parse(f)
	default:
		return nil, apperror.New(apperror.CodeInputInvalid, "unrecognized instance file extension: "+filepath.Ext(path))
	}
}

func computeMatrixFromWaypoints(r *http.Request, s *Server, waypoints []vrp.Waypoint) (*vrp.Matrix, error) {
	points := make([]adapters.Point, len(waypoints))
	for i, wp := range waypoints {
		points[i] = adapters.Point{Geo: wp.Geo, Planar: wp.Planar}
	}
	adapterName := "euclidean"
	if len(points) > 0 && points[0].Planar == nil && points[0].Geo != nil {
		adapterName = "haversine"
	}

	m, err := s.app.ComputeMatrix(r.Context(), adapterName, &adapters.Request{Coordinates: points})
	if err != nil {
		return nil, err
	}
	return &vrp.Matrix{Distances: m.Distances, Durations: m.Durations}, nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
