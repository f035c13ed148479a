package tui

import (
	"strings"
	"testing"
	"time"

	xansi "github.com/charmbracelet/x/ansi"

	"journey-cli/internal/model"
)

func TestMarkdownStyleName(t *testing.T) {
	t.Setenv("JOURNEY_TUI_DARKBG", "")
	t.Setenv("COLORFGBG", "")

	tests := []struct {
		style string
		env   map[string]string
		want  string
	}{
		{style: "notty", want: "notty"},
		{style: " Dark ", want: "dark"},
		{style: "light", want: "light"},
		{style: "auto", env: map[string]string{"JOURNEY_TUI_DARKBG": "true"}, want: "dark"},
		{style: "auto", env: map[string]string{"JOURNEY_TUI_DARKBG": "0"}, want: "light"},
		{style: "", env: map[string]string{"COLORFGBG": "15;0"}, want: "dark"},
		{style: "", env: map[string]string{"COLORFGBG": "0;15"}, want: "light"},
	}
	for _, tt := range tests {
		for k, v := range tt.env {
			t.Setenv(k, v)
		}
		if got := markdownStyleName(tt.style); got != tt.want {
			t.Fatalf("markdownStyleName(%q) with %v = %q, want %q", tt.style, tt.env, got, tt.want)
		}
		for k := range tt.env {
			t.Setenv(k, "")
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	if got := RenderMarkdown("  \n ", 40, "notty"); got != "" {
		t.Fatalf("blank markdown should render empty, got %q", got)
	}
	out := xansi.Strip(RenderMarkdown("# Psalm 23\n\nThe Lord is my **shepherd**.", 40, "notty"))
	if !strings.Contains(out, "Psalm 23") || !strings.Contains(out, "shepherd") {
		t.Fatalf("unexpected render:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if w := xansi.StringWidth(line); w > 40 {
			t.Fatalf("line wider than 40 (%d): %q", w, line)
		}
	}
}

func TestRenderItem(t *testing.T) {
	it := model.Item{
		ID:          "i1",
		Content:     "Read the Gospel of John",
		Status:      model.StatusDone,
		Progress:    50,
		Description: "One chapter a day",
		Subtasks: []model.Subtask{
			{Text: "Chapter 1", Completed: true},
			{Text: "Chapter 2"},
		},
		Activities: []model.Activity{{
			Text:      "Finished",
			Timestamp: model.NewTimestamp(time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)),
			File:      &model.FileRef{Name: "notes.pdf", URL: "http://x/files/i1/notes.pdf"},
		}},
	}
	out := xansi.Strip(RenderItem(it, 60, "notty"))
	for _, want := range []string{
		"Read the Gospel of John", "Done", "[#####-----]  50%", "One chapter a day",
		" 1. [x] Chapter 1", " 2. [ ] Chapter 2", "Finished 📎 notes.pdf",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderItemTruncatesLongTitles(t *testing.T) {
	it := model.Item{Content: strings.Repeat("long ", 30), Subtasks: []model.Subtask{{Text: strings.Repeat("x", 80)}}}
	for _, line := range strings.Split(RenderItem(it, 30, "notty"), "\n") {
		if w := xansi.StringWidth(line); w > 30 {
			t.Fatalf("line wider than 30 (%d): %q", w, line)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{0, "[----]"},
		{50, "[##--]"},
		{100, "[####]"},
		{150, "[####]"},
		{-5, "[----]"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.pct, 4); got != tt.want {
			t.Fatalf("progressBar(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
