package stats

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	leadCellStyle    = lipgloss.NewStyle()
	numericCellStyle = lipgloss.NewStyle().PaddingLeft(1).Align(lipgloss.Right)
)

// renderPlainTable lays out a borderless text table: the first column is
// left-aligned, the rest are right-aligned numbers separated by one space.
// Widths are measured in terminal cells.
func renderPlainTable(headers []string, rows [][]string) string {
	return table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return leadCellStyle
			}
			return numericCellStyle
		}).
		String()
}
