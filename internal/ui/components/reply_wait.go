package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aichat/internal/ui/styles"
)

// ReplyWait shows that a message is out to a model and how long it has
// been waiting.
type ReplyWait struct {
	spinner spinner.Model
	model   string
	since   time.Time
	text    lipgloss.Style
	muted   lipgloss.Style
}

// NewReplyWait creates an idle indicator.
func NewReplyWait() ReplyWait {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return ReplyWait{
		spinner: s,
		text:    lipgloss.NewStyle().Foreground(styles.TextSecondary),
		muted:   lipgloss.NewStyle().Foreground(styles.TextMuted),
	}
}

// Start begins waiting on model at now and returns the first animation tick.
func (w *ReplyWait) Start(model string, now time.Time) tea.Cmd {
	w.model = model
	w.since = now
	return w.spinner.Tick
}

// Update advances the animation.
func (w ReplyWait) Update(msg tea.Msg) (ReplyWait, tea.Cmd) {
	var cmd tea.Cmd
	w.spinner, cmd = w.spinner.Update(msg)
	return w, cmd
}

// Elapsed is the time spent waiting as of now, rounded down to the second.
func (w ReplyWait) Elapsed(now time.Time) time.Duration {
	if w.since.IsZero() || now.Before(w.since) {
		return 0
	}
	return now.Sub(w.since).Truncate(time.Second)
}

// View renders e.g. "⣾ Waiting for reply from gpt-4o... 12s".
func (w ReplyWait) View(now time.Time) string {
	label := "Waiting for reply"
	if w.model != "" {
		label += " from " + w.model
	}
	out := w.spinner.View() + " " + w.text.Render(label+"...")
	if !w.since.IsZero() {
		out += " " + w.muted.Render(fmt.Sprintf("%ds", int(w.Elapsed(now).Seconds())))
	}
	return out
}
