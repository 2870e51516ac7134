package visualization

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nvandessel/tanklab/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	podiumStyle = cellStyle.Foreground(lipgloss.Color("220"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// RankingTable renders the leaderboard. The top three rows are highlighted.
func RankingTable(rows []models.RankedResult) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			strconv.Itoa(r.Rank),
			r.Email,
			fmt.Sprintf("%.4f", r.Result.MeanAbsoluteError),
			fmt.Sprintf("%.3f", r.Result.PeakLevel),
			strconv.Itoa(r.Result.TotalDurationSeconds),
			fmt.Sprintf("%.4f", r.Result.IAE),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "EMAIL", "MAE", "PEAK (m)", "DURATION (s)", "IAE").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 3:
				return podiumStyle
			default:
				return cellStyle
			}
		})

	return t.String()
}

// HistoryTable renders a user's runs, oldest first.
func HistoryTable(results []models.SimulationResult) string {
	data := make([][]string, len(results))
	for i, r := range results {
		data[i] = []string{
			strconv.Itoa(i + 1),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.TotalDurationSeconds),
			fmt.Sprintf("%.2f", r.InflowRate),
			fmt.Sprintf("%.2f", r.MaxHeight),
			fmt.Sprintf("%.4f", r.MeanAbsoluteError),
			fmt.Sprintf("%.3f", r.PeakLevel),
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "WHEN", "DURATION (s)", "INFLOW", "HEIGHT", "MAE", "PEAK (m)").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// MetricsSummary renders the headline numbers of one run as aligned
// label/value lines.
func MetricsSummary(r *models.SimulationResult) string {
	if r == nil {
		return ""
	}
	lines := [][2]string{
		{"Mean absolute error", fmt.Sprintf("%.4f m", r.MeanAbsoluteError)},
		{"Peak level", fmt.Sprintf("%.3f m", r.PeakLevel)},
		{"IAE", fmt.Sprintf("%.4f", r.IAE)},
		{"ISAE", fmt.Sprintf("%.4f", r.ISAE)},
		{"Duration", fmt.Sprintf("%d s (%d samples)", r.TotalDurationSeconds, r.Samples())},
		{"Inflow / outflow", fmt.Sprintf("%.2f / %.2f L/s", r.InflowRate, r.OutflowRate)},
		{"Max height", fmt.Sprintf("%.2f m", r.MaxHeight)},
	}

	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(l[0]), valueStyle.Render(l[1]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}
