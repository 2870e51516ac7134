package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/tanklab/internal/session"
	"github.com/nvandessel/tanklab/internal/store"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	svc := session.NewService(store.NewInMemoryStore(), nil)
	server, err := NewServer(svc, &Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		AuditDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestNewServer_RequiresService(t *testing.T) {
	if _, err := NewServer(nil, &Config{Name: "x"}); err == nil {
		t.Error("NewServer(nil) should fail")
	}
}

func TestHandleRegister(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	result, out, err := server.handleRegister(ctx, &sdk.CallToolRequest{}, RegisterInput{
		Name: "Ana", Email: "ana@lab.edu", Role: "professor",
	})
	if err != nil {
		t.Fatalf("handleRegister failed: %v", err)
	}
	if result != nil {
		t.Error("Expected nil result (SDK auto-populates)")
	}
	if out.User.Role != "teacher" || out.User.Email != "ana@lab.edu" {
		t.Errorf("User = %+v", out.User)
	}

	_, _, err = server.handleRegister(ctx, &sdk.CallToolRequest{}, RegisterInput{Name: "Bad", Email: "no-at-sign"})
	var verr *session.ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Errorf("invalid email error = %v, want ValidationError on email", err)
	}
}

func TestHandleLogin_Provisions(t *testing.T) {
	server := setupTestServer(t)

	_, out, err := server.handleLogin(context.Background(), &sdk.CallToolRequest{}, LoginInput{Email: "new@lab.edu"})
	if err != nil {
		t.Fatalf("handleLogin failed: %v", err)
	}
	if out.User.Name != "User" || out.User.Role != "student" {
		t.Errorf("provisioned user = %+v, want default student", out.User)
	}
}

func TestHandleRunExperiment_Defaults(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleRunExperiment(ctx, &sdk.CallToolRequest{}, RunExperimentInput{Email: "ana@lab.edu"})
	if err != nil {
		t.Fatalf("handleRunExperiment failed: %v", err)
	}
	if !out.Found || out.Summary == nil {
		t.Fatalf("output = %+v, want a summary", out)
	}
	if out.Summary.TotalDurationSeconds != 100 || out.Summary.Samples != 100 {
		t.Errorf("summary = %+v, want default duration 100", out.Summary)
	}
	if out.Summary.RunID == "" {
		t.Error("RunID is empty")
	}
	if out.Result != nil {
		t.Error("series returned without include_series")
	}

	_, latest, err := server.handleLatestResult(ctx, &sdk.CallToolRequest{}, EmailInput{Email: "ana@lab.edu", IncludeSeries: true})
	if err != nil {
		t.Fatalf("handleLatestResult failed: %v", err)
	}
	if !latest.Found || latest.Result == nil || latest.Result.RunID != out.Summary.RunID {
		t.Errorf("latest = %+v, want run %s with series", latest, out.Summary.RunID)
	}
	if len(latest.Result.PlantLevel) != 100 {
		t.Errorf("len(PlantLevel) = %d, want 100", len(latest.Result.PlantLevel))
	}
}

func TestHandleRunExperiment_ExplicitParams(t *testing.T) {
	server := setupTestServer(t)

	_, out, err := server.handleRunExperiment(context.Background(), &sdk.CallToolRequest{}, RunExperimentInput{
		Email:           "ana@lab.edu",
		DurationSeconds: intPtr(20),
		InflowRate:      floatPtr(0),
		MaxHeight:       floatPtr(4),
	})
	if err != nil {
		t.Fatalf("handleRunExperiment failed: %v", err)
	}
	if out.Summary.TotalDurationSeconds != 20 || out.Summary.MaxHeight != 4 || out.Summary.InflowRate != 0 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestHandleRunExperiment_OutOfRange(t *testing.T) {
	server := setupTestServer(t)

	_, _, err := server.handleRunExperiment(context.Background(), &sdk.CallToolRequest{}, RunExperimentInput{
		Email:           "ana@lab.edu",
		DurationSeconds: intPtr(500),
	})
	var verr *session.ValidationError
	if !errors.As(err, &verr) || verr.Field != "duration_seconds" {
		t.Errorf("error = %v, want ValidationError on duration_seconds", err)
	}
}

func TestHandleLatestResult_None(t *testing.T) {
	server := setupTestServer(t)

	_, out, err := server.handleLatestResult(context.Background(), &sdk.CallToolRequest{}, EmailInput{Email: "ghost@lab.edu"})
	if err != nil {
		t.Fatalf("handleLatestResult failed: %v", err)
	}
	if out.Found || out.Summary != nil {
		t.Errorf("output = %+v, want not found", out)
	}
}

func TestHandleHistoryAndRanking(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	runs := []struct {
		email    string
		duration int
	}{
		{"ana@lab.edu", 50},
		{"ana@lab.edu", 100},
		{"rui@lab.edu", 100},
	}
	for _, r := range runs {
		if _, _, err := server.handleRunExperiment(ctx, req, RunExperimentInput{Email: r.email, DurationSeconds: intPtr(r.duration)}); err != nil {
			t.Fatalf("run %+v: %v", r, err)
		}
	}

	_, history, err := server.handleHistory(ctx, req, EmailInput{Email: "ana@lab.edu"})
	if err != nil {
		t.Fatalf("handleHistory failed: %v", err)
	}
	if history.Count != 2 || history.Results[0].TotalDurationSeconds != 50 {
		t.Errorf("history = %+v", history)
	}

	_, all, err := server.handleRanking(ctx, req, RankingInput{})
	if err != nil {
		t.Fatalf("handleRanking failed: %v", err)
	}
	if all.Count != 3 {
		t.Fatalf("ranking count = %d, want 3", all.Count)
	}
	for i, row := range all.Rows {
		if row.Rank != i+1 {
			t.Errorf("row %d rank = %d", i, row.Rank)
		}
		if i > 0 && row.Summary.MeanAbsoluteError < all.Rows[i-1].Summary.MeanAbsoluteError {
			t.Errorf("ranking not ascending by MAE at row %d", i)
		}
	}

	_, best, err := server.handleRanking(ctx, req, RankingInput{BestPerUser: true, Top: 1})
	if err != nil {
		t.Fatalf("handleRanking(best) failed: %v", err)
	}
	if best.Count != 1 || best.Rows[0].Rank != 1 {
		t.Errorf("best ranking = %+v", best)
	}
}

func TestHandleRankingResource(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	res, err := server.handleRankingResource(ctx, &sdk.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleRankingResource failed: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, "No experiments yet") {
		t.Errorf("empty ranking text = %q", res.Contents[0].Text)
	}

	server.handleRunExperiment(ctx, &sdk.CallToolRequest{}, RunExperimentInput{Email: "ana@lab.edu"})
	res, err = server.handleRankingResource(ctx, &sdk.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleRankingResource failed: %v", err)
	}
	if text := res.Contents[0].Text; !strings.Contains(text, "| 1 | ana@lab.edu |") {
		t.Errorf("ranking text = %q", text)
	}
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(t)
	server.limiters.Set("tank_login", 0.001, 1)
	ctx := context.Background()

	if _, _, err := server.handleLogin(ctx, &sdk.CallToolRequest{}, LoginInput{Email: "a@lab.edu"}); err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	_, _, err := server.handleLogin(ctx, &sdk.CallToolRequest{}, LoginInput{Email: "a@lab.edu"})
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("second login error = %v, want rate limit", err)
	}
}
