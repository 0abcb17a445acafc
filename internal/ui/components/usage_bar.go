package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aichat/internal/ui/styles"
)

// RenderUsageBar draws percent (0-100) as a bar that turns to the warning
// color once it reaches threshold.
func RenderUsageBar(label string, percent, threshold float64, width int) string {
	color := string(styles.Success)
	if threshold > 0 && percent >= threshold {
		color = string(styles.Warning)
	}

	bar := progress.New(
		progress.WithSolidFill(color),
		progress.WithWidth(max(width, 10)),
		progress.WithoutPercentage(),
	)

	ratio := min(max(percent/100, 0), 1)
	labelStyle := lipgloss.NewStyle().Width(10).Foreground(styles.TextSecondary)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(label),
		bar.ViewAs(ratio),
		fmt.Sprintf(" %5.1f%%", percent),
	)
}
