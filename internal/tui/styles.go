package tui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	text    lipgloss.Color
	muted   lipgloss.Color
	accent  lipgloss.Color
	warn    lipgloss.Color
	border  lipgloss.Color
	pillFg  lipgloss.Color
	pillBg  lipgloss.Color
	breakFg lipgloss.Color
	breakBg lipgloss.Color
	freeFg  lipgloss.Color
	freeBg  lipgloss.Color
	active  lipgloss.Color
	dayBar  string
	weekBar string
}

var lightPalette = palette{
	text:    lipgloss.Color("#1F2937"),
	muted:   lipgloss.Color("#6B7280"),
	accent:  lipgloss.Color("#2563EB"),
	warn:    lipgloss.Color("#DC2626"),
	border:  lipgloss.Color("#D1D5DB"),
	pillFg:  lipgloss.Color("#1E3A8A"),
	pillBg:  lipgloss.Color("#DBEAFE"),
	breakFg: lipgloss.Color("#166534"),
	breakBg: lipgloss.Color("#DCFCE7"),
	freeFg:  lipgloss.Color("#991B1B"),
	freeBg:  lipgloss.Color("#FEE2E2"),
	active:  lipgloss.Color("#FEF3C7"),
	dayBar:  "#2563EB",
	weekBar: "#7C3AED",
}

var darkPalette = palette{
	text:    lipgloss.Color("#F0F0F0"),
	muted:   lipgloss.Color("#8C8C8C"),
	accent:  lipgloss.Color("#C89A3A"),
	warn:    lipgloss.Color("#FF4D4F"),
	border:  lipgloss.Color("#4A4A4A"),
	pillFg:  lipgloss.Color("#F0F0F0"),
	pillBg:  lipgloss.Color("#1E3A8A"),
	breakFg: lipgloss.Color("#DCFCE7"),
	breakBg: lipgloss.Color("#166534"),
	freeFg:  lipgloss.Color("#FEE2E2"),
	freeBg:  lipgloss.Color("#7F1D1D"),
	active:  lipgloss.Color("#3A3222"),
	dayBar:  "#C89A3A",
	weekBar: "#8B5CF6",
}

type styles struct {
	palette palette
	clock   lipgloss.Style
	day     lipgloss.Style
	timer   lipgloss.Style
	warning lipgloss.Style
	pill    lipgloss.Style
	pause   lipgloss.Style
	idle    lipgloss.Style
	meta    lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	card    lipgloss.Style
	entry   lipgloss.Style
	current lipgloss.Style
	notice  lipgloss.Style
	errText lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	return styles{
		palette: p,
		clock:   lipgloss.NewStyle().Foreground(p.text).Bold(true),
		day:     lipgloss.NewStyle().Foreground(p.muted),
		timer:   lipgloss.NewStyle().Foreground(p.text).Bold(true),
		warning: lipgloss.NewStyle().Foreground(p.warn).Bold(true),
		pill:    lipgloss.NewStyle().Foreground(p.pillFg).Background(p.pillBg).Padding(0, 1),
		pause:   lipgloss.NewStyle().Foreground(p.breakFg).Background(p.breakBg).Padding(0, 1),
		idle:    lipgloss.NewStyle().Foreground(p.freeFg).Background(p.freeBg).Padding(0, 1),
		meta:    lipgloss.NewStyle().Foreground(p.muted),
		label:   lipgloss.NewStyle().Foreground(p.muted),
		value:   lipgloss.NewStyle().Foreground(p.text).Bold(true),
		card: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(p.border),
		entry:   lipgloss.NewStyle().Foreground(p.text),
		current: lipgloss.NewStyle().Foreground(p.text).Background(p.active).Bold(true),
		notice:  lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		errText: lipgloss.NewStyle().Foreground(p.warn),
	}
}
