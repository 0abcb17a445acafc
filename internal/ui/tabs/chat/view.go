package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/aichat/internal/models"
	"github.com/j-veylop/aichat/internal/ui/styles"
)

// errorPrefix marks a stored reply that is an API error.
const errorPrefix = "Error: "

// View renders the chat tab.
func (m *Model) View() string {
	m.syncViewport()

	sections := []string{
		m.renderModelPicker(),
		m.viewport.View(),
		styles.FocusedBorderStyle.Render(m.input.View()),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// syncViewport rewrites the conversation when it changed and follows the
// newest message.
func (m *Model) syncViewport() {
	msgs := m.state.Messages()
	if len(msgs) == m.rendered && m.width == m.renderedWidth {
		return
	}
	m.viewport.SetContent(renderMessages(msgs, m.width))
	m.viewport.GotoBottom()
	m.rendered = len(msgs)
	m.renderedWidth = m.width
}

func (m *Model) renderModelPicker() string {
	selected := m.state.SelectedModel()
	line := fmt.Sprintf("Model: ‹ %s › %s",
		styles.FocusedStyle.Render(selected.Name),
		styles.MessageMetaStyle.Render(selected.ID),
	)
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return line
}

func (m *Model) renderFooter() string {
	switch {
	case m.confirmClear:
		return styles.WarningTextStyle.Render("Delete all chat history? ") +
			styles.HelpKeyStyle.Render("y") + styles.HelpDescStyle.Render(" yes  ") +
			styles.HelpKeyStyle.Render("n") + styles.HelpDescStyle.Render(" no")
	case m.state.IsPending():
		return m.wait.View(time.Now())
	}

	var parts []string
	for _, b := range []struct{ k, d string }{
		{"enter", "send"}, {"ctrl+n/p", "model"}, {"ctrl+l", "clear"}, {"ctrl+s", "save"}, {"tab", "analytics"},
	} {
		parts = append(parts, styles.HelpKeyStyle.Render(b.k)+" "+styles.HelpDescStyle.Render(b.d))
	}
	footer := strings.Join(parts, "  ")
	if m.width > 0 {
		footer = ansi.Truncate(footer, m.width, "…")
	}
	return footer
}

// renderMessages lays out the conversation, oldest first, wrapped to width.
func renderMessages(msgs []models.Message, width int) string {
	if len(msgs) == 0 {
		return styles.HelpStyle.Render("No messages yet. Say hello!")
	}

	body := lipgloss.NewStyle()
	if width > 4 {
		body = body.Width(width - 2)
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		ts := msg.Timestamp.Local().Format("15:04:05")

		b.WriteString(styles.UserMessageStyle.Render("You") + " " + styles.MessageMetaStyle.Render(ts) + "\n")
		b.WriteString(body.Render(msg.UserMessage) + "\n")

		meta := fmt.Sprintf("%s · %d tokens", msg.Model, msg.TokensUsed)
		b.WriteString(styles.CardTitleStyle.UnsetMarginBottom().Render("AI") + " " + styles.MessageMetaStyle.Render(meta) + "\n")

		replyStyle := styles.AIMessageStyle
		if msg.TokensUsed == 0 && strings.HasPrefix(msg.AIResponse, errorPrefix) {
			replyStyle = styles.ErrorReplyStyle
		}
		b.WriteString(replyStyle.Inherit(body).Render(msg.AIResponse) + "\n")
	}
	return b.String()
}
