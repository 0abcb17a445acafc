package analytics

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/ui/components"
	"github.com/j-veylop/aichat/internal/ui/styles"
	"github.com/j-veylop/aichat/internal/version"
)

// View renders the analytics tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderUsageCard(),
		m.renderTokensCard(),
		m.renderModelsCard(),
		m.renderPerformanceCard(),
		m.renderSessionCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return m.viewport.View()
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Analytics")
	subtitle := styles.HelpStyle.Render("Usage since the last history clear")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderUsageCard() string {
	stats := m.state.Stats()

	rows := []string{
		styles.CardTitleStyle.Render("Usage"),
		renderRow("Messages", fmt.Sprintf("%d", stats.TotalMessages)),
		renderRow("Tokens", fmt.Sprintf("%d", stats.TotalTokens)),
		renderRow("Tokens/message", fmt.Sprintf("%.1f", stats.TokensPerMessage)),
		renderRow("Messages/minute", fmt.Sprintf("%.2f", stats.MessagesPerMinute)),
		renderRow("Session", formatDuration(stats.SessionDuration)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderTokensCard() string {
	series := m.state.TokenSeries()
	chartWidth := m.cardWidth() - 16

	rows := []string{
		styles.CardTitleStyle.Render("Tokens per message"),
		components.RenderLineChart(series, chartWidth, 8, fmt.Sprintf("last %d exchanges", len(series))),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderModelsCard() string {
	usage := m.state.Stats().ModelUsage

	rows := []string{styles.CardTitleStyle.Render("Models")}
	if len(usage) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No messages sent yet"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	names := sortedModels(usage)
	counts := make([]float64, len(names))
	for i, name := range names {
		counts[i] = float64(usage[name].Count)
	}
	rows = append(rows, components.RenderBarChart(counts, names, m.cardWidth()-6), "")

	for _, name := range names {
		u := usage[name]
		rows = append(rows, renderRow(name, fmt.Sprintf("%d messages, %d tokens", u.Count, u.Tokens)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// sortedModels orders model names by message count, then by name.
func sortedModels(usage map[string]models.ModelUsage) []string {
	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if d := usage[b].Count - usage[a].Count; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return names
}

func (m *Model) renderPerformanceCard() string {
	rows := []string{styles.CardTitleStyle.Render("Performance")}

	health := m.state.Health()
	status := health.Status
	label := string(status)
	if label == "" {
		label = "not sampled yet"
	}
	rows = append(rows, renderRow("Health", styles.GetHealthStyle(status).Render(label)))
	for _, w := range health.Warnings {
		rows = append(rows, "  "+styles.WarningTextStyle.Render(w))
	}
	if health.Error != "" {
		rows = append(rows, "  "+styles.ErrorTextStyle.Render(health.Error))
	}

	avg, ok := m.state.Performance()
	if !ok {
		rows = append(rows, styles.HelpStyle.Render("No samples yet"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	barWidth := m.cardWidth() - 30
	rows = append(rows,
		"",
		components.RenderUsageBar("CPU", avg.AvgCPU, m.thresholds.CPUPercent, barWidth),
		components.RenderUsageBar("Memory", avg.AvgMemory, m.thresholds.MemoryPercent, barWidth),
		renderRow("Threads", fmt.Sprintf("%.1f avg", avg.AvgThreads)),
		renderRow("Samples", fmt.Sprintf("%d", avg.SampleCount)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderSessionCard() string {
	stats := m.state.Stats()

	rows := []string{
		styles.CardTitleStyle.Render("Session"),
		renderRow("Session ID", stats.SessionID),
	}
	if m.config != nil {
		rows = append(rows,
			renderRow("Database", m.config.DatabasePath),
			renderRow("Exports", m.config.ExportsDir),
			renderRow("Logs", m.config.LogsDir),
		)
	}
	rows = append(rows,
		renderRow("Version", version.GetVersion()),
		renderRow("Go", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}
