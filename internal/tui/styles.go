package tui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	fg, dim, accent, border lipgloss.Color
	marker, active, hover   lipgloss.Color
	line, errFg             lipgloss.Color
}

var (
	darkPalette = palette{
		fg:     "#E6E6E6",
		dim:    "#6B7280",
		accent: "#7C3AED",
		border: "#243141",
		marker: "#38BDF8",
		active: "#F43F5E",
		hover:  "#FFA500",
		line:   "#A3E635",
		errFg:  "#F87171",
	}
	lightPalette = palette{
		fg:     "#1F2937",
		dim:    "#6B7280",
		accent: "#6D28D9",
		border: "#CBD5E1",
		marker: "#0369A1",
		active: "#BE123C",
		hover:  "#C2410C",
		line:   "#4D7C0F",
		errFg:  "#B91C1C",
	}
)

type styles struct {
	app, box, title, dim     lipgloss.Style
	marker, active, hover    lipgloss.Style
	line, selected, errStyle lipgloss.Style
}

func newStyles(theme string) styles {
	p := darkPalette
	if theme == "light" {
		p = lightPalette
	}
	return styles{
		app:      lipgloss.NewStyle().Foreground(p.fg),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		title:    lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		dim:      lipgloss.NewStyle().Foreground(p.dim),
		marker:   lipgloss.NewStyle().Foreground(p.marker),
		active:   lipgloss.NewStyle().Foreground(p.active).Bold(true),
		hover:    lipgloss.NewStyle().Foreground(p.hover),
		line:     lipgloss.NewStyle().Foreground(p.line),
		selected: lipgloss.NewStyle().Foreground(p.active),
		errStyle: lipgloss.NewStyle().Foreground(p.errFg),
	}
}
