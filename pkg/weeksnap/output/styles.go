package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
)

// Colors from the ANSI 256-color palette.
const (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorDanger  = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
)

var (
	// HeaderBox frames the volume summary above a table.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox frames the totals below a table.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorDanger)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	PathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	// SlotStyle highlights slot names in the first column.
	SlotStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
)

var (
	// TableHeaderStyle is used for column headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted).
				PaddingRight(2)

	// TableRowStyle is used for data cells.
	TableRowStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// outcomeStyle colors a journal outcome.
func outcomeStyle(outcome manifest.Outcome) lipgloss.Style {
	switch outcome {
	case manifest.OutcomeCreated:
		return SuccessStyle
	case manifest.OutcomeFailed:
		return ErrorStyle
	default:
		return MutedStyle
	}
}
