package auth

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aichat/internal/app"
	"github.com/j-veylop/aichat/internal/ui/styles"
)

// View renders the auth screen.
func (m *Model) View() string {
	var rows []string

	rows = append(rows, styles.TitleStyle.Render("AI Chat"))

	switch m.stage {
	case app.StageEnterPin:
		rows = append(rows, m.renderPinForm()...)
	default:
		rows = append(rows, m.renderSecretForm()...)
	}

	if msg := m.state.AuthError(); msg != "" {
		rows = append(rows, "", styles.ErrorTextStyle.Render(msg))
	}

	rows = append(rows, "", m.renderHelp())

	card := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if m.width == 0 || m.height == 0 {
		return card
	}
	return styles.CenterBoth(card, m.width, m.height)
}

func (m *Model) renderSecretForm() []string {
	return []string{
		styles.HelpStyle.Render("Enter your OpenRouter API key. It is checked against"),
		styles.HelpStyle.Render("the API, saved to .env and exchanged for a 4-digit PIN."),
		"",
		m.renderInput(),
	}
}

func (m *Model) renderPinForm() []string {
	var rows []string
	if pin := m.state.IssuedPin(); pin != "" {
		rows = append(rows,
			styles.SuccessTextStyle.Render("API key saved. Your PIN is:"),
			styles.PinStyle.Render(pin),
			styles.HelpStyle.Render("Write it down, you need it to log in."),
			"",
		)
	}
	rows = append(rows,
		styles.HelpStyle.Render("Enter your PIN to unlock the chat."),
		"",
		m.renderInput(),
	)
	return rows
}

func (m *Model) renderInput() string {
	view := m.input.View()
	if m.busy {
		view += "  " + styles.HelpStyle.Render("checking...")
	}
	return styles.FocusedBorderStyle.Render(view)
}

func (m *Model) renderHelp() string {
	var parts []string
	for _, b := range m.ShortHelp() {
		if m.stage == app.StageEnterSecret && b.Help().Key == m.keys.Back.Help().Key && !m.canGoBack {
			continue
		}
		parts = append(parts, styles.HelpKeyStyle.Render(b.Help().Key)+" "+styles.HelpDescStyle.Render(b.Help().Desc))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joinWith(parts, "  ")...)
}

func joinWith(parts []string, sep string) []string {
	out := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
