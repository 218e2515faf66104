package cmd

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorGreen  = lipgloss.Color("#2CD7C7")
	colorYellow = lipgloss.Color("#F4D03F")
	colorRed    = lipgloss.Color("#E74C3C")
	colorBlue   = lipgloss.Color("#3498DB")
	colorMuted  = lipgloss.Color("#7F8C8D")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

func success(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, successStyle.Render("✓ "+fmt.Sprintf(format, a...)))
}

func warn(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf(format, a...)))
}

// renderTable 输出带标题的表格。
func renderTable(w io.Writer, title string, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, t.String())
}

// scoreColor 是 CLI 中风险分值的颜色：5 及以下绿色，6-15 黄色，其余红色。
func scoreColor(score int) lipgloss.Color {
	switch {
	case score <= 5:
		return colorGreen
	case score <= 15:
		return colorYellow
	default:
		return colorRed
	}
}

func colored(c lipgloss.Color, s string) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func auditStatusColor(s models.AuditStatus) lipgloss.Color {
	switch s {
	case models.AuditPending:
		return colorYellow
	case models.AuditInProgress:
		return colorBlue
	case models.AuditCompleted:
		return colorGreen
	}
	return colorMuted
}

func severityColor(s models.Severity) lipgloss.Color {
	switch s {
	case models.SeverityCritical, models.SeverityHigh:
		return colorRed
	case models.SeverityMedium:
		return colorYellow
	case models.SeverityLow:
		return colorGreen
	}
	return colorMuted
}

// matrixLabel 是风险矩阵单元格的文本，没有风险时为 "·"。
func matrixLabel(count int) string {
	if count == 0 {
		return "·"
	}
	return fmt.Sprintf("%d risk(s)", count)
}

// timestamp 截取到分钟，与 "2006-01-02 15:04" 一致。
func timestamp(t interface{ Format(string) string }) string {
	return t.Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
