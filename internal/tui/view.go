package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/farmdash/internal/app/conversation"
	"github.com/PabloGalante/farmdash/internal/domain"
)

func (m Model) View() string {
	if m.picking {
		title := m.styles.Header.Render(" " + m.catalog.AttachmentStaged + " ")
		return lipgloss.JoinVertical(lipgloss.Left, title, m.styles.Content.Render(m.filepicker.View()))
	}

	st := m.session.Store().State()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(" "+m.catalog.Title+" "),
		m.viewport.View(),
		m.renderStatus(st),
		m.textarea.View(),
	)
}

func (m Model) renderHistory(st conversation.State) string {
	width := max(m.width-4, 20)
	var b strings.Builder

	for i, msg := range st.History() {
		if i > 0 {
			b.WriteString("\n")
		}
		label := m.styles.Assistant.Render("Assistant")
		if msg.Sender == domain.SenderUser {
			label = m.styles.User.Render("You")
		}
		b.WriteString(label + " " + m.styles.Meta.Render(msg.CreatedAt.Local().Format("15:04")) + "\n")

		if msg.Content != "" {
			b.WriteString(m.styles.Bubble.Width(width).Render(msg.Content) + "\n")
		}
		for _, a := range msg.Attachments {
			b.WriteString(m.styles.Bubble.Inherit(m.styles.Staged).Render("["+string(a.Kind)+"] "+a.DisplayName) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderStatus(st conversation.State) string {
	var parts []string

	if phase := m.session.Composer().Phase(); phase == conversation.PhaseSending {
		parts = append(parts, m.spinner.View()+m.styles.Status.Render(phase.String()))
	}
	if a, ok := st.Staged(); ok {
		parts = append(parts, m.styles.Staged.Render(m.catalog.AttachmentStaged+": "+a.DisplayName+" (ctrl+x)"))
	}
	if m.notice != "" {
		parts = append(parts, m.styles.Error.Render(m.notice))
	}
	if len(parts) == 0 {
		parts = append(parts, m.styles.Status.Render("enter "+strings.ToLower(m.catalog.Send)+" · ctrl+o attach · esc quit"))
	}
	return strings.Join(parts, "  ")
}
