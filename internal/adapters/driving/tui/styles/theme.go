// Package styles holds the palette and the lipgloss styles shared by the views.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours a theme is built from. The names follow the
// page metaphor: text is ink on paper, and the accent marks what the reader
// is looking at.
type Palette struct {
	Accent lipgloss.Color
	Link   lipgloss.Color
	Page   lipgloss.Color
	Ink    lipgloss.Color
	Faded  lipgloss.Color
	Rule   lipgloss.Color
	Mark   lipgloss.Color

	Good    lipgloss.Color
	Caution lipgloss.Color
	Bad     lipgloss.Color
}

// DefaultTheme returns the dark parchment palette.
func DefaultTheme() *Palette {
	return &Palette{
		Accent:  "#D4A373",
		Link:    "#8AADF4",
		Page:    "#1F1D1A",
		Ink:     "#E8E1D3",
		Faded:   "#7D766A",
		Rule:    "#4A453D",
		Mark:    "#5C4B2E",
		Good:    "#A6DA95",
		Caution: "#EED49F",
		Bad:     "#ED8796",
	}
}

// Styles are the rendered styles of one palette.
type Styles struct {
	palette *Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style

	// Selected is the highlighted row of a list.
	Selected lipgloss.Style

	// Marked is the reader line a search excerpt starts on.
	Marked lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// Question and Source style the chat transcript.
	Question lipgloss.Style
	Source   lipgloss.Style
}

// NewStyles builds styles from p. A nil palette uses DefaultTheme.
func NewStyles(p *Palette) *Styles {
	if p == nil {
		p = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	boxed := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(p.Rule)

	return &Styles{
		palette: p,

		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.Link).Bold(true),
		Normal:   fg(p.Ink),
		Muted:    fg(p.Faded),
		Help:     fg(p.Faded),

		Selected: fg(p.Page).Background(p.Accent).Bold(true),
		Marked:   fg(p.Ink).Background(p.Mark),

		Error:   fg(p.Bad),
		Success: fg(p.Good),
		Warning: fg(p.Caution),

		InputField: boxed.Padding(0, 1),
		StatusBar:  fg(p.Faded).Background(p.Page).Padding(0, 1),
		Border:     boxed,

		Question: fg(p.Link).Bold(true),
		Source:   fg(p.Faded).Italic(true),
	}
}

// DefaultStyles returns styles for the default palette.
func DefaultStyles() *Styles {
	return NewStyles(nil)
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Palette {
	return s.palette
}
