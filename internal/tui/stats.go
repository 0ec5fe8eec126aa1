package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/smokebreak/internal/export"
	"github.com/sadopc/smokebreak/internal/stats"
)

type statsModel struct {
	width  int
	height int

	chart barchart.Model
}

func newStatsModel() statsModel {
	return statsModel{chart: barchart.New(60, 12)}
}

func (r *statsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// buildChart draws one bar per day of the seven-day chart.
func (r *statsModel) buildChart(days []stats.ChartDay) {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	barStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	var bars []barchart.BarData
	for _, d := range days {
		style := barStyle
		if d.Count == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		value := barchart.BarValue{
			Name:  d.Date,
			Value: float64(d.Count),
			Style: style,
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Label,
			Values: []barchart.BarValue{value},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r statsModel) view(p *pomodoroModel, streak int) string {
	w := max(r.width-4, 20)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Statistics"), "  ", mutedStyle.Render("last 7 days"),
	)

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", renderSummaryTable(p, streak, w),
		),
	)
}

func renderSummaryTable(p *pomodoroModel, streak, w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s", "Period", "Sessions", "Focus")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 34))))

	for _, row := range []struct {
		name string
		t    stats.Totals
	}{
		{"Today", p.today},
		{"This week", p.week},
		{"All time", p.total},
	} {
		rows = append(rows, fmt.Sprintf("  %-12s %10d %10s", row.name, row.t.Count, export.FormatMinutes(row.t.FocusMinutes)))
	}

	rows = append(rows, "")
	flame := mutedStyle.Render("no streak")
	if streak > 0 {
		unit := "days"
		if streak == 1 {
			unit = "day"
		}
		flame = accentStyle.Bold(true).Render(fmt.Sprintf("%d %s streak", streak, unit))
	}
	rows = append(rows, "  "+flame)

	return strings.Join(rows, "\n")
}
