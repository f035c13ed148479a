package tui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"journey-cli/internal/model"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width. glamour.WithAutoStyle probes the terminal and can
	// block, so styles are resolved once and renderers reused.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// markdownStyleName maps the configured style (auto|dark|light|notty) to a glamour style.
func markdownStyleName(style string) string {
	switch s := strings.ToLower(strings.TrimSpace(style)); s {
	case "notty", "dark", "light":
		return s
	}
	if darkBackground(style) {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(name string) ansi.StyleConfig {
	switch name {
	case "notty":
		return styles.NoTTYStyleConfig
	case "light":
		cfg := styles.LightStyleConfig
		applyJourneyPalette(&cfg, name)
		return cfg
	default:
		cfg := styles.DarkStyleConfig
		applyJourneyPalette(&cfg, name)
		return cfg
	}
}

func applyJourneyPalette(cfg *ansi.StyleConfig, name string) {
	heading := mdColor(ac("235", "252"), name)
	cfg.Heading.Color = heading
	cfg.H1.Color = heading
	cfg.H2.Color = heading
	cfg.H3.Color = heading
	link := mdColor(ac("27", "62"), name)
	cfg.Link.Color = link
	cfg.Link.Underline = mdBoolPtr(true)
	cfg.LinkText.Color = link
}

func mdColor(c lipgloss.AdaptiveColor, name string) *string {
	if name == "light" {
		return &c.Light
	}
	return &c.Dark
}

func mdBoolPtr(b bool) *bool { return &b }

// RenderMarkdown renders md for a terminal of the given width. On any renderer error the
// source text is returned as is.
func RenderMarkdown(md string, width int, style string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	name := markdownStyleName(style)
	key := name + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()
	if r == nil {
		zero := uint(0)
		cfg := markdownStyleConfig(name)
		cfg.Document.Margin = &zero
		rr, err := glamour.NewTermRenderer(glamour.WithStyles(cfg), glamour.WithWordWrap(width))
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// RenderItem lays out one item for reading: header, status and progress, the rendered
// description, subtasks and the activity log.
func RenderItem(it model.Item, width int, style string) string {
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	b.WriteString(styleTitle().Render(xansi.Truncate(it.Content, width, "…")))
	b.WriteString("\n")
	b.WriteString(statusLabel(it.Status))
	b.WriteString(styleMuted().Render(fmt.Sprintf("  %s  %d%%", progressBar(it.Progress, 10), it.Progress)))
	b.WriteString("\n")

	if desc := RenderMarkdown(it.Description, width, style); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}

	if len(it.Subtasks) > 0 {
		b.WriteString("\n")
		b.WriteString(styleTitle().Render("Subtasks"))
		b.WriteString("\n")
		for i, st := range it.Subtasks {
			b.WriteString(subtaskLine(i, st, width))
			b.WriteString("\n")
		}
	}

	if len(it.Activities) > 0 {
		b.WriteString("\n")
		b.WriteString(styleTitle().Render("Activity"))
		b.WriteString("\n")
		for _, a := range it.Activities {
			b.WriteString(activityLine(a, width))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusLabel(s model.Status) string {
	st := lipgloss.NewStyle().Bold(true)
	switch s {
	case model.StatusDone:
		st = st.Foreground(colorDone)
	case model.StatusSkipped:
		st = st.Foreground(colorSkipped)
	default:
		st = st.Foreground(colorAccent)
	}
	if s == "" {
		s = model.StatusInProgress
	}
	return st.Render(string(s))
}

func progressBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func subtaskLine(i int, st model.Subtask, width int) string {
	box := "[ ]"
	if st.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%2d. %s %s", i+1, box, st.Text)
	return xansi.Truncate(line, width, "…")
}

func activityLine(a model.Activity, width int) string {
	when := styleMuted().Render(a.Timestamp.Time.Local().Format("2006-01-02 15:04"))
	text := a.Text
	if a.File != nil {
		if text != "" {
			text += " "
		}
		text += "📎 " + a.File.Name
	}
	return xansi.Truncate(when+"  "+text, width, "…")
}
