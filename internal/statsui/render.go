package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/versetype/internal/model"
	"github.com/verte-zerg/versetype/internal/stats"
)

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Challenges) == 0 {
		return "No challenges found."
	}
	parts := []string{renderSummaryCards(report.Challenges, width)}
	if curves := renderCurves(report.Challenges, window, width); curves != "" {
		parts = append(parts, curves)
	}
	if weak := renderWeakest(report.CharAggsWindow); weak != "" {
		parts = append(parts, weak)
	}
	return strings.Join(parts, "\n\n")
}

func renderSummaryCards(challenges []model.ChallengeAggregate, width int) string {
	s := stats.Summarize(challenges)
	cards := []string{
		metricCard("Challenges", humanize.Comma(int64(s.Challenges))),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", s.AvgWPM)),
		metricCard("Best WPM", fmt.Sprintf("%d", s.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", s.AvgAccuracy*100)),
		metricCard("Characters", humanize.Comma(int64(s.TotalChars))),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(challenges []model.ChallengeAggregate, window, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, challenges, window, width); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderWeakest(aggs []model.CharAggregate) string {
	weak := stats.WeakestChars(aggs, 5, 3)
	if len(weak) == 0 {
		return ""
	}
	labels := make([]string, 0, len(weak))
	for _, agg := range weak {
		total := agg.Correct + agg.Incorrect
		labels = append(labels, fmt.Sprintf("%s %.0f%%", agg.Char, float64(agg.Correct)/float64(total)*100))
	}
	return "Weakest: " + strings.Join(labels, "  ")
}

func newTable(columns []table.Column) table.Model {
	return table.New(
		table.WithColumns(columns),
		table.WithStyles(tableStyles()),
	)
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func charColumns() []table.Column {
	return []table.Column{
		{Title: "Char", Width: 4},
		{Title: "Accuracy", Width: 9},
		{Title: "Correct", Width: 7},
		{Title: "Missed", Width: 7},
		{Title: "Total", Width: 6},
	}
}

func charRows(aggs []model.CharAggregate) []table.Row {
	sorted := make([]model.CharAggregate, len(aggs))
	copy(sorted, aggs)
	sortCharAggsByTotal(sorted)
	rows := make([]table.Row, 0, len(sorted))
	for _, agg := range sorted {
		total := agg.Correct + agg.Incorrect
		acc := 0.0
		if total > 0 {
			acc = float64(agg.Correct) / float64(total) * 100
		}
		rows = append(rows, table.Row{
			agg.Char,
			fmt.Sprintf("%.2f%%", acc),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
			fmt.Sprintf("%d", total),
		})
	}
	return rows
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "Passage", Width: 32},
		{Title: "WPM", Width: 5},
		{Title: "Accuracy", Width: 9},
		{Title: "Time", Width: 8},
	}
}

// historyRows lists challenges newest first.
func historyRows(challenges []model.ChallengeAggregate) []table.Row {
	rows := make([]table.Row, 0, len(challenges))
	for i := len(challenges) - 1; i >= 0; i-- {
		c := challenges[i]
		wpm, acc, ok := stats.ChallengeMetrics(c)
		wpmLabel, accLabel := "-", "-"
		if ok {
			wpmLabel = fmt.Sprintf("%d", wpm)
			accLabel = fmt.Sprintf("%.0f%%", acc*100)
		}
		rows = append(rows, table.Row{
			humanize.Time(c.EndedAt),
			c.Reference,
			wpmLabel,
			accLabel,
			fmt.Sprintf("%ds", c.DurationMs/1000),
		})
	}
	return rows
}
