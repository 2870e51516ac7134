package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/session"
	"github.com/nvandessel/tanklab/internal/store"
)

type fakeSource struct {
	latest  map[string]*models.SimulationResult
	ranked  []models.RankedResult
	rankErr error
	userErr error
}

func (f *fakeSource) LatestResult(ctx context.Context, email string) (*models.SimulationResult, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.latest[email], nil
}

func (f *fakeSource) History(ctx context.Context, email string) ([]models.SimulationResult, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	if r := f.latest[email]; r != nil {
		return []models.SimulationResult{*r}, nil
	}
	return []models.SimulationResult{}, nil
}

func (f *fakeSource) ListRanked(ctx context.Context) ([]models.RankedResult, error) {
	return f.ranked, f.rankErr
}

func newFakeSource(t *testing.T) *fakeSource {
	r := testResult(t)
	return &fakeSource{
		latest: map[string]*models.SimulationResult{"a@x.com": r},
		ranked: []models.RankedResult{
			{Rank: 1, Email: "a@x.com", Result: *r},
			{Rank: 2, Email: "b@x.com", Result: models.SimulationResult{MeanAbsoluteError: 0.9}},
			{Rank: 3, Email: "a@x.com", Result: models.SimulationResult{MeanAbsoluteError: 1.2}},
		},
	}
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp, body
}

func TestServer_Routes(t *testing.T) {
	ts := httptest.NewServer(NewServer(newFakeSource(t)).Router())
	defer ts.Close()

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"index", "/", http.StatusOK, "text/html; charset=utf-8", "a@x.com"},
		{"health", "/healthz", http.StatusOK, "application/json", `"ok":true`},
		{"ranking", "/api/ranking", http.StatusOK, "application/json", "b@x.com"},
		{"latest", "/api/users/a@x.com/latest", http.StatusOK, "application/json", "mean_absolute_error"},
		{"latest missing", "/api/users/nobody@x.com/latest", http.StatusNotFound, "application/json", "no simulation run yet"},
		{"history", "/api/users/a@x.com/history", http.StatusOK, "application/json", "run_id"},
		{"chart", "/users/a@x.com/chart.png", http.StatusOK, "image/png", "PNG"},
		{"chart missing", "/users/nobody@x.com/chart.png", http.StatusNotFound, "", "no simulation run yet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts, tt.path)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantType != "" && resp.Header.Get("Content-Type") != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", resp.Header.Get("Content-Type"), tt.wantType)
			}
			if !strings.Contains(string(body), tt.wantContain) {
				t.Errorf("body missing %q: %.200s", tt.wantContain, body)
			}
		})
	}
}

func TestServer_RankingQuery(t *testing.T) {
	ts := httptest.NewServer(NewServer(newFakeSource(t)).Router())
	defer ts.Close()

	tests := []struct {
		path    string
		wantLen int
	}{
		{"/api/ranking", 3},
		{"/api/ranking?best=true", 2},
		{"/api/ranking?top=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, body := get(t, ts, tt.path)
			var rows []models.RankedResult
			if err := json.Unmarshal(body, &rows); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(rows) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(rows), tt.wantLen)
			}
		})
	}
}

func TestServer_IndexEmpty(t *testing.T) {
	ts := httptest.NewServer(NewServer(&fakeSource{}).Router())
	defer ts.Close()

	_, body := get(t, ts, "/")
	if !strings.Contains(string(body), "No simulation run yet") {
		t.Errorf("empty index should say no runs: %s", body)
	}
}

func TestServer_RankingError(t *testing.T) {
	ts := httptest.NewServer(NewServer(&fakeSource{rankErr: errors.New("disk gone")}).Router())
	defer ts.Close()

	resp, _ := get(t, ts, "/api/ranking")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestServer_UserErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &session.ValidationError{Field: "email", Message: "is required"}, http.StatusBadRequest},
		{"storage", &store.StorageError{Op: "get latest result", Err: store.ErrCorruptBlob}, http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(NewServer(&fakeSource{userErr: tt.err}).Router())
			defer ts.Close()

			for _, path := range []string{
				"/api/users/a@x.com/latest",
				"/api/users/a@x.com/history",
				"/users/a@x.com/chart.png",
			} {
				resp, _ := get(t, ts, path)
				if resp.StatusCode != tt.wantStatus {
					t.Errorf("%s status = %d, want %d", path, resp.StatusCode, tt.wantStatus)
				}
			}
		})
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	srv := NewServer(newFakeSource(t))
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, "localhost:0") }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Addr() == "" {
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v, want nil on shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
