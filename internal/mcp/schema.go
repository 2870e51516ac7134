package mcp

import (
	"time"

	"github.com/nvandessel/tanklab/internal/models"
)

// RegisterInput defines the input for tank_register.
type RegisterInput struct {
	Name  string `json:"name" jsonschema:"Display name of the user"`
	Email string `json:"email" jsonschema:"Email address that identifies the user"`
	Role  string `json:"role,omitempty" jsonschema:"Account role: student or teacher (default student)"`
}

// UserOutput is returned by tank_register and tank_login.
type UserOutput struct {
	User    models.User `json:"user" jsonschema:"The registered or logged in user"`
	Message string      `json:"message" jsonschema:"Human-readable result message"`
}

// LoginInput defines the input for tank_login.
type LoginInput struct {
	Email string `json:"email" jsonschema:"Email address to log in with"`
	Name  string `json:"name,omitempty" jsonschema:"Name used if the account has to be created"`
}

// RunExperimentInput defines the input for tank_run_experiment. Omitted
// parameters fall back to the dashboard defaults.
type RunExperimentInput struct {
	Email           string   `json:"email" jsonschema:"Email of the user running the experiment"`
	DurationSeconds *int     `json:"duration_seconds,omitempty" jsonschema:"Experiment duration in seconds, 10 to 200 (default 100)"`
	InflowRate      *float64 `json:"inflow_rate,omitempty" jsonschema:"Inflow step in L/s (default 5)"`
	OutflowRate     *float64 `json:"outflow_rate,omitempty" jsonschema:"Outflow in L/s, recorded only (default 3)"`
	MaxHeight       *float64 `json:"max_height,omitempty" jsonschema:"Tank height in meters (default 10)"`
	IncludeSeries   bool     `json:"include_series,omitempty" jsonschema:"Return the full time series instead of metrics only"`
}

// ResultSummary is the metric view of one result.
type ResultSummary struct {
	RunID                string    `json:"run_id"`
	MeanAbsoluteError    float64   `json:"mean_absolute_error"`
	PeakLevel            float64   `json:"peak_level"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	IAE                  float64   `json:"iae"`
	ISAE                 float64   `json:"isae"`
	InflowRate           float64   `json:"inflow_rate"`
	MaxHeight            float64   `json:"max_height"`
	Samples              int       `json:"samples"`
	CreatedAt            time.Time `json:"created_at,omitzero"`
}

// ResultOutput is returned by tank_run_experiment and tank_latest_result.
type ResultOutput struct {
	Found   bool                     `json:"found" jsonschema:"Whether a result exists"`
	Summary *ResultSummary           `json:"summary,omitempty" jsonschema:"Metrics of the result"`
	Result  *models.SimulationResult `json:"result,omitempty" jsonschema:"Full result including time series"`
	Message string                   `json:"message" jsonschema:"Human-readable result message"`
}

// EmailInput selects a user.
type EmailInput struct {
	Email         string `json:"email" jsonschema:"Email of the user"`
	IncludeSeries bool   `json:"include_series,omitempty" jsonschema:"Return the full time series instead of metrics only"`
}

// HistoryOutput is returned by tank_history.
type HistoryOutput struct {
	Results []ResultSummary `json:"results" jsonschema:"Results oldest first"`
	Count   int             `json:"count" jsonschema:"Number of results"`
}

// RankingInput defines the input for tank_ranking.
type RankingInput struct {
	Top         int  `json:"top,omitempty" jsonschema:"Maximum number of rows (default all)"`
	BestPerUser bool `json:"best_per_user,omitempty" jsonschema:"Keep only the best result of each user"`
}

// RankingRow is one leaderboard row.
type RankingRow struct {
	Rank    int           `json:"rank"`
	Email   string        `json:"email"`
	Summary ResultSummary `json:"summary"`
}

// RankingOutput is returned by tank_ranking.
type RankingOutput struct {
	Rows  []RankingRow `json:"rows" jsonschema:"Leaderboard rows, best first"`
	Count int          `json:"count" jsonschema:"Number of rows"`
}

func summarize(r *models.SimulationResult) ResultSummary {
	return ResultSummary{
		RunID:                r.RunID,
		MeanAbsoluteError:    r.MeanAbsoluteError,
		PeakLevel:            r.PeakLevel,
		TotalDurationSeconds: r.TotalDurationSeconds,
		IAE:                  r.IAE,
		ISAE:                 r.ISAE,
		InflowRate:           r.InflowRate,
		MaxHeight:            r.MaxHeight,
		Samples:              r.Samples(),
		CreatedAt:            r.CreatedAt,
	}
}

// BackupInput defines the input for tank_backup.
type BackupInput struct {
	OutputPath string `json:"output_path,omitempty" jsonschema:"Backup file path inside the backup directory (default: auto-generated)"`
}

// BackupOutput is returned by tank_backup.
type BackupOutput struct {
	Path        string `json:"path" jsonschema:"Path of the written backup"`
	UserCount   int    `json:"user_count" jsonschema:"Number of users exported"`
	ResultCount int    `json:"result_count" jsonschema:"Number of results exported"`
	Version     int    `json:"version" jsonschema:"Backup format version"`
	SizeBytes   int64  `json:"size_bytes" jsonschema:"Size of the backup file"`
	Message     string `json:"message" jsonschema:"Human-readable result message"`
}

// RestoreInput defines the input for tank_restore.
type RestoreInput struct {
	InputPath string `json:"input_path" jsonschema:"Backup file inside the backup directory"`
	Mode      string `json:"mode,omitempty" jsonschema:"merge keeps existing data (default), replace clears the store first"`
}

// RestoreOutput is returned by tank_restore.
type RestoreOutput struct {
	UsersRestored   int    `json:"users_restored"`
	UsersSkipped    int    `json:"users_skipped"`
	ResultsRestored int    `json:"results_restored"`
	ResultsSkipped  int    `json:"results_skipped"`
	Message         string `json:"message" jsonschema:"Human-readable result message"`
}
