package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/raff/internal/models"
)

var (
	lightStyles = NewPalette("#0D9488", "#047857", "#DC2626", "#B45309", "#6B7280")
	darkStyles  = NewPalette("#2DD4BF", "#04B575", "#F87171", "#FBBF24", "#9CA3AF")
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	selected lipgloss.Style
	banner   lipgloss.Style
	modal    lipgloss.Style
}

// NewPalette builds a palette from title, success, error, warning and help colors.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		heading:  NewBold(t),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		selected: NewBold(t).Underline(true),
		banner: NewBold(t).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t)).
			Padding(1, 4).
			Align(lipgloss.Center),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(w)).
			Padding(1, 2),
	}
}

// PaletteFor returns the palette for a theme.
func PaletteFor(t models.Theme) *Palette {
	if t == models.ThemeDark {
		return darkStyles
	}
	return lightStyles
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
