// Package api serves stored grid snapshots and their zone mismatch reports
// over HTTP as JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/gridstore"
	"github.com/banshee-data/cornergrid/internal/monitoring"
	"github.com/banshee-data/cornergrid/internal/version"
)

const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// SnapshotStore is the part of the grid store the server reads.
type SnapshotStore interface {
	ListSnapshots(ctx context.Context, name string) ([]gridstore.Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (gridstore.Snapshot, error)
	LoadGrid(ctx context.Context, id string, opts ...grid3d.Option) (*grid3d.Grid, error)
	DeleteSnapshot(ctx context.Context, id string) error
	ZoneMismatchReports(ctx context.Context, snapshotID string) ([]gridstore.ZoneMismatchReport, error)
}

type Server struct {
	store SnapshotStore
	log   monitoring.Sink
}

func NewServer(store SnapshotStore, log monitoring.Sink) *Server {
	return &Server{store: store, log: monitoring.OrDiscard(log)}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status and duration to the ops
// stream of log.
func LoggingMiddleware(log monitoring.Sink, next http.Handler) http.Handler {
	log = monitoring.OrDiscard(log)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Opsf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/api/grids", s.listGrids)
	mux.HandleFunc("/api/grids/{id}", s.gridHandler)
	mux.HandleFunc("/api/grids/{id}/reports", s.listReports)
	mux.HandleFunc("/api/grids/{id}/cells/{i}/{j}/{k}", s.showCell)
	mux.HandleFunc("/api/grids/{id}/locate", s.locatePoint)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store and grid errors to status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gridstore.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, grid3d.ErrIndex), errors.Is(err, grid3d.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Opsf("api: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) listGrids(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	snaps, err := s.store.ListSnapshots(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if snaps == nil {
		snaps = []gridstore.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) gridHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		snap, err := s.store.GetSnapshot(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case http.MethodDelete:
		if err := s.store.DeleteSnapshot(r.Context(), id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.log.Opsf("api: deleted grid snapshot %s", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id := r.PathValue("id")
	if _, err := s.store.GetSnapshot(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	reps, err := s.store.ZoneMismatchReports(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if reps == nil {
		reps = []gridstore.ZoneMismatchReport{}
	}
	writeJSON(w, http.StatusOK, reps)
}

type vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func toVec(v r3.Vec) vec { return vec{v.X, v.Y, v.Z} }

type cellResponse struct {
	I       int     `json:"i"`
	J       int     `json:"j"`
	K       int     `json:"k"`
	Active  bool    `json:"active"`
	Subgrid string  `json:"subgrid,omitempty"`
	Center  vec     `json:"center"`
	Height  float64 `json:"height"`
	Corners [8]vec  `json:"corners"`
}

// showCell describes the 1-based cell (i, j, k) of a stored grid.
func (s *Server) showCell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var ijk [3]int
	for n, key := range []string{"i", "j", "k"} {
		v, err := strconv.Atoi(r.PathValue(key))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid '"+key+"' index")
			return
		}
		ijk[n] = v
	}
	g, err := s.store.LoadGrid(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	i, j, k := ijk[0], ijk[1], ijk[2]
	corners, err := g.CellCorners(i, j, k, false)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	resp := cellResponse{I: i, J: j, K: k}
	resp.Active, _ = g.IsActive(i, j, k)
	resp.Subgrid, _ = g.SubgridOfLayer(k)
	center, _ := g.CellCenter(i, j, k)
	resp.Center = toVec(center)
	resp.Height, _ = g.CellHeight(i, j, k, false)
	for n, c := range corners {
		resp.Corners[n] = toVec(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// locatePoint finds the 1-based cell holding the point given by the x, y
// and z query parameters. active=false includes inactive cells.
func (s *Server) locatePoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	var p [3]float64
	for n, key := range []string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid '"+key+"' parameter")
			return
		}
		p[n] = v
	}
	activeOnly := q.Get("active") != "false"

	g, err := s.store.LoadGrid(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	ijk, ok := g.IJKFromXYZ(r3.Vec{X: p[0], Y: p[1], Z: p[2]}, activeOnly, false)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "point is in no cell")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"i": ijk.I, "j": ijk.J, "k": ijk.K})
}
