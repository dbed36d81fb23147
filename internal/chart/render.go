package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4757"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	axisStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

const maxLabelWidth = 20

// Render draws the series as horizontal bars scaled to fit width columns.
func Render(s *Series, width int) string {
	var b strings.Builder

	b.WriteString(axisStyle.Render(fmt.Sprintf("%s by %s", s.ValueColumn, labelOrRow(s.LabelColumn))))
	b.WriteString("\n")

	if len(s.Points) == 0 {
		b.WriteString(axisStyle.Render("(no numeric values)"))
		b.WriteString("\n")
		return b.String()
	}

	labelWidth := 0
	valueWidth := 0
	peak := 0.0
	for _, p := range s.Points {
		labelWidth = max(labelWidth, min(lipgloss.Width(p.Label), maxLabelWidth))
		valueWidth = max(valueWidth, len(formatValue(p.Value)))
		peak = math.Max(peak, math.Abs(p.Value))
	}

	barWidth := width - labelWidth - valueWidth - 4
	if barWidth < 10 {
		barWidth = 10
	}

	for _, p := range s.Points {
		label := truncate(p.Label, maxLabelWidth)
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(label))

		n := 0
		if peak > 0 {
			n = int(math.Round(math.Abs(p.Value) / peak * float64(barWidth)))
		}
		if n == 0 && p.Value != 0 {
			n = 1
		}

		style := barStyle
		if p.Value < 0 {
			style = negativeStyle
		}

		b.WriteString(labelStyle.Render(label))
		b.WriteString(pad)
		b.WriteString(axisStyle.Render(" │ "))
		b.WriteString(style.Render(strings.Repeat("█", n)))
		b.WriteString(" ")
		b.WriteString(formatValue(p.Value))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary formats a Summary on one line.
func RenderSummary(sum Summary) string {
	return axisStyle.Render(fmt.Sprintf("n=%d  sum=%s  min=%s  max=%s  mean=%s  median=%s",
		sum.Count, formatValue(sum.Sum), formatValue(sum.Min), formatValue(sum.Max),
		formatValue(sum.Mean), formatValue(sum.Median)))
}

func formatValue(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func labelOrRow(label string) string {
	if label == "" {
		return "row"
	}
	return label
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "~"
}
