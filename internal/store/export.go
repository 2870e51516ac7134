package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/tanklab/internal/models"
)

// csvHeader is the first row written by WriteResultCSV.
var csvHeader = []string{"time", "ideal_level", "plant_level"}

// WriteResultCSV writes one row per sample of r: time, ideal level, plant level.
func WriteResultCSV(w io.Writer, r *models.SimulationResult) error {
	if r == nil {
		return fmt.Errorf("no result to export")
	}
	if len(r.IdealLevel) != len(r.Time) || len(r.PlantLevel) != len(r.Time) {
		return fmt.Errorf("result has mismatched series lengths (%d, %d, %d)",
			len(r.Time), len(r.IdealLevel), len(r.PlantLevel))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range r.Time {
		record := []string{
			formatFloat(r.Time[i]),
			formatFloat(r.IdealLevel[i]),
			formatFloat(r.PlantLevel[i]),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
