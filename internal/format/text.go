package format

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// Leading columns, in this order, when present.
var preferredKeys = []string{"id", "title", "name", "content", "email", "role", "status", "progress", "match_score"}

var (
	keyStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// WriteText renders v for people: lists of records become tables, a record becomes
// "key: value" lines. Styling is dropped when w is not a terminal.
func WriteText(w io.Writer, v any) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	if env, ok := x.(map[string]any); ok {
		if data, ok := env["data"]; ok {
			x = data
		}
	}
	r := lipgloss.NewRenderer(w, termenv.WithColorCache(true))
	var b strings.Builder
	renderText(&b, r, x)
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}

func renderText(b *strings.Builder, r *lipgloss.Renderer, x any) {
	switch t := x.(type) {
	case []any:
		if len(t) == 0 {
			b.WriteString("(none)\n")
			return
		}
		if rows, ok := allMaps(t); ok {
			b.WriteString(renderTable(r, rows))
			return
		}
		for _, e := range t {
			b.WriteString(scalar(e))
			b.WriteByte('\n')
		}
	case map[string]any:
		keys := orderedKeys([]map[string]any{t})
		width := 0
		for _, k := range keys {
			width = max(width, len(k))
		}
		ks := r.NewStyle().Inherit(keyStyle)
		for _, k := range keys {
			label := ks.Render(k + ":" + strings.Repeat(" ", width-len(k)))
			if rows, ok := t[k].([]any); ok {
				if maps, ok := allMaps(rows); ok && len(maps) > 0 {
					b.WriteString(label + "\n")
					b.WriteString(renderTable(r, maps))
					continue
				}
			}
			b.WriteString(label + " " + scalar(t[k]) + "\n")
		}
	default:
		b.WriteString(scalar(x))
	}
}

func allMaps(xs []any) ([]map[string]any, bool) {
	out := make([]map[string]any, 0, len(xs))
	for _, x := range xs {
		m, ok := x.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

func renderTable(r *lipgloss.Renderer, rows []map[string]any) string {
	keys := orderedKeys(rows)
	hs := r.NewStyle().Inherit(headerStyle)
	cs := r.NewStyle().Inherit(cellStyle)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Faint(true)).
		Headers(keys...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return hs
			}
			return cs
		})
	for _, m := range rows {
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = cell(m[k])
		}
		t.Row(cells...)
	}
	return t.String() + "\n"
}

func orderedKeys(rows []map[string]any) []string {
	seen := map[string]bool{}
	var rest []string
	for _, m := range rows {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)
	out := make([]string, 0, len(rest))
	for _, k := range preferredKeys {
		if seen[k] {
			out = append(out, k)
			delete(seen, k)
		}
	}
	for _, k := range rest {
		if seen[k] {
			out = append(out, k)
		}
	}
	return out
}

// cell is scalar, but nested records collapse to a count.
func cell(x any) string {
	switch t := x.(type) {
	case []any:
		if _, ok := allMaps(t); ok && len(t) > 0 {
			return strconv.Itoa(len(t))
		}
	case map[string]any:
		return fmt.Sprintf("{%d fields}", len(t))
	}
	return scalar(x)
}

func scalar(x any) string {
	switch t := x.(type) {
	case nil:
		return "-"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if float64(int64(t)) == t {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, scalar(e))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := orderedKeys([]map[string]any{t})
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+scalar(t[k]))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", x)
	}
}
