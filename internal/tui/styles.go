package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent   = "33"
	colorSubtle   = "244"
	colorDisabled = "238"
	colorDanger   = "203"
	colorText     = "252"
	colorSelectBG = "25"
	colorSelectFG = "230"
)

type styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Status   lipgloss.Style
	Help     lipgloss.Style
	Enabled  lipgloss.Style
	Disabled lipgloss.Style
	Header   lipgloss.Style
	Selected lipgloss.Style
	Modal    lipgloss.Style
	Danger   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle)),
		Focused:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorText)),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle)),
		Enabled:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color(colorDisabled)),
		Header: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color(colorSubtle)),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSelectFG)).
			Background(lipgloss.Color(colorSelectBG)),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorAccent)).
			Padding(1, 3),
		Danger: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorDanger)),
	}
}
