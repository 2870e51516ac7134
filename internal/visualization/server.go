package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/ranking"
	"github.com/nvandessel/tanklab/internal/session"
)

// ResultSource is the read side of the lab the dashboard needs.
// *session.Service satisfies it.
type ResultSource interface {
	LatestResult(ctx context.Context, email string) (*models.SimulationResult, error)
	History(ctx context.Context, email string) ([]models.SimulationResult, error)
	ListRanked(ctx context.Context) ([]models.RankedResult, error)
}

// Server serves a read-only dashboard: the leaderboard page, per-user
// charts and a JSON API.
type Server struct {
	source     ResultSource
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a dashboard server over source.
func NewServer(source ResultSource) *Server {
	return &Server{source: source}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/api/ranking", s.handleRanking)
	r.Get("/api/users/{email}/latest", s.handleLatest)
	r.Get("/api/users/{email}/history", s.handleHistory)
	r.Get("/users/{email}/chart.png", s.handleChart)
	return r
}

// ListenAndServe serves on addr (use "localhost:0" for an OS-assigned port)
// and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>tanklab ranking</title></head>
<body>
<h1>Water tank experiment ranking</h1>
{{if .}}<table border="1" cellpadding="4">
<tr><th>#</th><th>Email</th><th>MAE</th><th>Peak (m)</th><th>Duration (s)</th><th>Chart</th></tr>
{{range .}}<tr><td>{{.Rank}}</td><td>{{.Email}}</td><td>{{printf "%.4f" .Result.MeanAbsoluteError}}</td><td>{{printf "%.3f" .Result.PeakLevel}}</td><td>{{.Result.TotalDurationSeconds}}</td><td><a href="/users/{{.Email}}/chart.png">latest</a></td></tr>
{{end}}</table>{{else}}<p>No simulation run yet.</p>{{end}}
</body></html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rows, err := s.source.ListRanked(r.Context())
	if err != nil {
		http.Error(w, "ranking error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexTemplate.Execute(w, ranking.BestPerUser(rows))
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	rows, err := s.source.ListRanked(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if best, _ := strconv.ParseBool(r.URL.Query().Get("best")); best {
		rows = ranking.BestPerUser(rows)
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil {
		rows = ranking.Top(rows, n)
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	result, err := s.source.LatestResult(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no simulation run yet"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	results, err := s.source.History(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	result, err := s.source.LatestResult(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	if result == nil || result.Samples() == 0 {
		http.Error(w, "no simulation run yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := WritePNG(w, result, PNGOptions{}); err != nil {
		http.Error(w, "chart error: "+err.Error(), http.StatusInternalServerError)
	}
}

// errorStatus maps rejected input to 400 and everything else, storage
// failures included, to 500.
func errorStatus(err error) int {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
