package tui

import "github.com/charmbracelet/lipgloss"

var (
	paddy  = lipgloss.Color("#7CB342")
	soil   = lipgloss.Color("#8D6E63")
	sky    = lipgloss.Color("#4FC3F7")
	muted  = lipgloss.Color("#9E9E9E")
	danger = lipgloss.Color("#E57373")
)

// Styles holds the lipgloss styles used by the chat view.
type Styles struct {
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Meta      lipgloss.Style
	Bubble    lipgloss.Style
	Staged    lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Content   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(paddy).
			Padding(0, 1),
		User:      lipgloss.NewStyle().Bold(true).Foreground(sky),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(paddy),
		Meta:      lipgloss.NewStyle().Foreground(muted),
		Bubble:    lipgloss.NewStyle().PaddingLeft(2),
		Staged:    lipgloss.NewStyle().Foreground(soil).Italic(true),
		Status:    lipgloss.NewStyle().Foreground(muted),
		Error:     lipgloss.NewStyle().Foreground(danger),
		Content:   lipgloss.NewStyle().Padding(0, 1),
	}
}
