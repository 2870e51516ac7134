package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/ranking"
	"github.com/nvandessel/tanklab/internal/sanitize"
)

// RankingResourceURI is the markdown leaderboard resource.
const RankingResourceURI = "tanklab://ranking"

// registerTools registers all tank lab tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tank_register",
		Description: "Register a lab user, or update the name and role of an existing email",
	}, s.handleRegister)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tank_login",
		Description: "Log in by email; unknown emails are provisioned as students",
	}, s.handleLogin)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tank_run_experiment",
		Description: "Run a water tank step-response experiment and store the result",
	}, s.handleRunExperiment)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tank_latest_result",
		Description: "Get the most recent experiment result of a user",
	}, s.handleLatestResult)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tank_history",
		Description: "List every experiment result of a user, oldest first",
	}, s.handleHistory)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tank_ranking",
		Description: "Rank all stored results by mean absolute error, then duration",
	}, s.handleRanking)

	if s.store != nil {
		sdk.AddTool(s.server, &sdk.Tool{
			Name:        "tank_backup",
			Description: "Export all users and results to a compressed backup file",
		}, s.handleBackup)

		sdk.AddTool(s.server, &sdk.Tool{
			Name:        "tank_restore",
			Description: "Import users and results from a backup file (merge or replace)",
		}, s.handleRestore)
	}
}

func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         RankingResourceURI,
		Name:        "tanklab-ranking",
		Description: "Class leaderboard: best result of each user.",
		MIMEType:    "text/markdown",
	}, s.handleRankingResource)
}

func (s *Server) handleRegister(ctx context.Context, req *sdk.CallToolRequest, args RegisterInput) (_ *sdk.CallToolResult, _ UserOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tank_register", start, retErr, map[string]any{
			"name": args.Name, "email": args.Email, "role": args.Role,
		})
	}()

	if err := s.limiters.Check("tank_register"); err != nil {
		return nil, UserOutput{}, err
	}

	user, err := s.svc.Register(ctx, args.Name, args.Email, args.Role)
	if err != nil {
		return nil, UserOutput{}, err
	}
	return nil, UserOutput{
		User:    *user,
		Message: fmt.Sprintf("Registered %s (%s) as %s", user.Name, user.Email, user.Role),
	}, nil
}

func (s *Server) handleLogin(ctx context.Context, req *sdk.CallToolRequest, args LoginInput) (_ *sdk.CallToolResult, _ UserOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tank_login", start, retErr, map[string]any{"email": args.Email, "name": args.Name})
	}()

	if err := s.limiters.Check("tank_login"); err != nil {
		return nil, UserOutput{}, err
	}

	user, err := s.svc.Login(ctx, args.Email, args.Name)
	if err != nil {
		return nil, UserOutput{}, err
	}
	return nil, UserOutput{
		User:    *user,
		Message: fmt.Sprintf("Logged in as %s (%s)", user.Name, user.Email),
	}, nil
}

// params applies the dashboard defaults to omitted fields.
func (in RunExperimentInput) params() models.ExperimentParams {
	p := models.DefaultExperimentParams()
	if in.DurationSeconds != nil {
		p.DurationSeconds = *in.DurationSeconds
	}
	if in.InflowRate != nil {
		p.InflowRate = *in.InflowRate
	}
	if in.OutflowRate != nil {
		p.OutflowRate = *in.OutflowRate
	}
	if in.MaxHeight != nil {
		p.MaxHeight = *in.MaxHeight
	}
	return p
}

func (s *Server) handleRunExperiment(ctx context.Context, req *sdk.CallToolRequest, args RunExperimentInput) (_ *sdk.CallToolResult, _ ResultOutput, retErr error) {
	params := args.params()
	start := time.Now()
	defer func() {
		s.auditTool("tank_run_experiment", start, retErr, map[string]any{
			"email":            args.Email,
			"duration_seconds": params.DurationSeconds,
			"inflow_rate":      params.InflowRate,
			"outflow_rate":     params.OutflowRate,
			"max_height":       params.MaxHeight,
		})
	}()

	if err := s.limiters.Check("tank_run_experiment"); err != nil {
		return nil, ResultOutput{}, err
	}

	result, err := s.svc.RunExperiment(ctx, args.Email, params)
	if err != nil {
		return nil, ResultOutput{}, err
	}
	return nil, resultOutput(result, args.IncludeSeries,
		fmt.Sprintf("Experiment %s finished: MAE %.4f m, peak %.3f m", result.RunID, result.MeanAbsoluteError, result.PeakLevel)), nil
}

func (s *Server) handleLatestResult(ctx context.Context, req *sdk.CallToolRequest, args EmailInput) (_ *sdk.CallToolResult, _ ResultOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tank_latest_result", start, retErr, map[string]any{
			"email": args.Email, "include_series": args.IncludeSeries,
		})
	}()

	if err := s.limiters.Check("tank_latest_result"); err != nil {
		return nil, ResultOutput{}, err
	}

	result, err := s.svc.LatestResult(ctx, args.Email)
	if err != nil {
		return nil, ResultOutput{}, err
	}
	if result == nil {
		return nil, ResultOutput{Found: false, Message: "No experiments yet for " + args.Email}, nil
	}
	return nil, resultOutput(result, args.IncludeSeries,
		fmt.Sprintf("Latest experiment %s: MAE %.4f m over %d s", result.RunID, result.MeanAbsoluteError, result.TotalDurationSeconds)), nil
}

func resultOutput(r *models.SimulationResult, withSeries bool, msg string) ResultOutput {
	summary := summarize(r)
	out := ResultOutput{Found: true, Summary: &summary, Message: msg}
	if withSeries {
		out.Result = r
	}
	return out
}

func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args EmailInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tank_history", start, retErr, map[string]any{"email": args.Email})
	}()

	if err := s.limiters.Check("tank_history"); err != nil {
		return nil, HistoryOutput{}, err
	}

	results, err := s.svc.History(ctx, args.Email)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	out := HistoryOutput{Results: make([]ResultSummary, 0, len(results))}
	for i := range results {
		out.Results = append(out.Results, summarize(&results[i]))
	}
	out.Count = len(out.Results)
	return nil, out, nil
}

func (s *Server) ranked(ctx context.Context, top int, bestPerUser bool) ([]models.RankedResult, error) {
	rows, err := s.svc.ListRanked(ctx)
	if err != nil {
		return nil, err
	}
	if bestPerUser {
		rows = ranking.BestPerUser(rows)
	}
	return ranking.Top(rows, top), nil
}

func (s *Server) handleRanking(ctx context.Context, req *sdk.CallToolRequest, args RankingInput) (_ *sdk.CallToolResult, _ RankingOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tank_ranking", start, retErr, map[string]any{
			"top": args.Top, "best_per_user": args.BestPerUser,
		})
	}()

	if err := s.limiters.Check("tank_ranking"); err != nil {
		return nil, RankingOutput{}, err
	}

	rows, err := s.ranked(ctx, args.Top, args.BestPerUser)
	if err != nil {
		return nil, RankingOutput{}, err
	}
	out := RankingOutput{Rows: make([]RankingRow, 0, len(rows))}
	for i := range rows {
		out.Rows = append(out.Rows, RankingRow{
			Rank:    rows[i].Rank,
			Email:   rows[i].Email,
			Summary: summarize(&rows[i].Result),
		})
	}
	out.Count = len(out.Rows)
	return nil, out, nil
}

// handleRankingResource renders the per-user leaderboard as markdown.
func (s *Server) handleRankingResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	rows, err := s.ranked(ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Tank Lab Ranking\n\n")
	if len(rows) == 0 {
		sb.WriteString("No experiments yet. Run one with `tank_run_experiment`.\n")
	} else {
		sb.WriteString("| # | User | MAE (m) | Duration (s) | Peak (m) |\n")
		sb.WriteString("|---|------|---------|--------------|----------|\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "| %d | %s | %.4f | %d | %.3f |\n",
				r.Rank, sanitize.TableCell(r.Email), r.Result.MeanAbsoluteError, r.Result.TotalDurationSeconds, r.Result.PeakLevel)
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      RankingResourceURI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}
