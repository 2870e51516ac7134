package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/tanklab/internal/models"
)

// JournalFileName is the file the journal appends to inside its directory.
const JournalFileName = "runs.jsonl"

// RunEntry is one journal line.
type RunEntry struct {
	Time   string                  `json:"time"`
	Email  string                  `json:"email"`
	RunID  string                  `json:"run_id"`
	Params models.ExperimentParams `json:"params"`

	MeanAbsoluteError float64 `json:"mean_absolute_error"`
	IAE               float64 `json:"iae"`
	ISAE              float64 `json:"isae"`
	PeakLevel         float64 `json:"peak_level"`
	NoiseLevel        float64 `json:"noise_level"`
	Samples           int     `json:"samples"`

	// Series are only written at trace level.
	IdealLevel []float64 `json:"ideal_level,omitempty"`
	PlantLevel []float64 `json:"plant_level,omitempty"`
}

// RunJournal appends experiment runs to a JSONL file. It is safe for
// concurrent use. A nil RunJournal is valid and records nothing.
type RunJournal struct {
	mu         sync.Mutex
	file       *os.File
	withSeries bool
}

// NewRunJournal opens dir/runs.jsonl for append when level is debug or
// trace. At info level, or if the file cannot be opened, it returns nil.
func NewRunJournal(dir string, level string) *RunJournal {
	lvl := ParseLevel(level)
	if lvl >= slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, JournalFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &RunJournal{file: f, withSeries: lvl <= LevelTrace}
}

// Record writes one line for result run by email.
func (j *RunJournal) Record(email string, result *models.SimulationResult) {
	if j == nil || result == nil {
		return
	}

	entry := RunEntry{
		Time:              time.Now().UTC().Format(time.RFC3339Nano),
		Email:             email,
		RunID:             result.RunID,
		Params:            result.Params(),
		MeanAbsoluteError: result.MeanAbsoluteError,
		IAE:               result.IAE,
		ISAE:              result.ISAE,
		PeakLevel:         result.PeakLevel,
		NoiseLevel:        result.NoiseLevel,
		Samples:           result.Samples(),
	}
	if j.withSeries {
		entry.IdealLevel = result.IdealLevel
		entry.PlantLevel = result.PlantLevel
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return
	}
	_, _ = j.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (j *RunJournal) Close() {
	if j == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		j.file.Close()
		j.file = nil
	}
}
