package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Adaptive colors keep the board readable on light and dark terminals; faint
// styling is only applied on dark backgrounds where it stays legible.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted     lipgloss.TerminalColor = ac("240", "243")
	colorSurfaceFg lipgloss.TerminalColor = ac("235", "252")
	colorControlBg lipgloss.TerminalColor = ac("252", "235")
	colorAccent    lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg  lipgloss.TerminalColor = ac("255", "235")

	colorSelectedBg     lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg     lipgloss.TerminalColor = ac("235", "255")
	colorSelectedBorder lipgloss.TerminalColor = ac("232", "255")
	colorCardBorder     lipgloss.TerminalColor = ac("250", "243")

	colorDone    lipgloss.TerminalColor = ac("28", "78")
	colorSkipped lipgloss.TerminalColor = ac("94", "179")
	colorError   lipgloss.TerminalColor = ac("160", "203")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg)
}

func styleHeader(selected bool) lipgloss.Style {
	if selected {
		return lipgloss.NewStyle().Bold(true).Foreground(colorAccentFg).Background(colorAccent).Padding(0, 1)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg).Padding(0, 1)
}

func styleCard(selected, held bool) lipgloss.Style {
	st := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorCardBorder).Padding(0, 1)
	switch {
	case held:
		st = st.Border(lipgloss.DoubleBorder()).BorderForeground(colorAccent)
	case selected:
		st = st.BorderForeground(colorSelectedBorder).Foreground(colorSelectedFg).Background(colorSelectedBg)
	}
	return st
}

func styleStatusLine(isErr bool) lipgloss.Style {
	if isErr {
		return lipgloss.NewStyle().Foreground(colorError)
	}
	return styleMuted()
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts the terminal. It does
// not use termenv.EnvColorProfile, whose CLICOLOR handling can switch colors off in a TUI.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	if profile != termenv.Ascii && (strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit")) {
		profile = termenv.TrueColor
	} else if profile == termenv.ANSI && strings.Contains(strings.ToLower(os.Getenv("TERM")), "256color") {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// darkBackground resolves the configured markdown style: "dark" and "light" are taken as
// given, anything else goes through JOURNEY_TUI_DARKBG, then COLORFGBG, then terminal probing.
func darkBackground(style string) bool {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "dark":
		return true
	case "light":
		return false
	}
	if v := strings.TrimSpace(os.Getenv("JOURNEY_TUI_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	// COLORFGBG is "fg;bg"; xterm palette entries 0-6 are dark.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			return bg < 7
		}
	}
	return termenv.HasDarkBackground()
}

func applyThemePreference(style string) {
	lipgloss.SetHasDarkBackground(darkBackground(style))
}
