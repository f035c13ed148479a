package tui

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/bubbles/textarea"
)

func TestEditorArgv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"vim", []string{"vim"}},
		{"code --wait", []string{"code", "--wait"}},
		{"vim -u 'foo bar'", []string{"vim", "-u", "foo bar"}},
		{`vim -c "set ft=markdown"`, []string{"vim", "-c", "set ft=markdown"}},
		{`vim\ -u\ foo`, []string{"vim -u foo"}},
		{`nano ''`, []string{"nano", ""}},
	}
	for _, tt := range tests {
		if got := editorArgv(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("editorArgv(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyExternalEdit(t *testing.T) {
	t.Parallel()

	e := &editorScreen{area: textarea.New()}
	e.area.SetValue("before")
	path := filepath.Join(t.TempDir(), "edited.md")
	if err := os.WriteFile(path, []byte("after\n"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	changed, err := e.applyExternalEdit(externalEditorDoneMsg{path: path})
	if err != nil || !changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	if got := e.area.Value(); got != "after\n" {
		t.Fatalf("expected textarea to be updated, got %q", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be removed, stat err=%v", err)
	}
}

func TestApplyExternalEditFailureKeepsDraft(t *testing.T) {
	t.Parallel()

	e := &editorScreen{area: textarea.New()}
	e.area.SetValue("before")
	path := filepath.Join(t.TempDir(), "edited.md")
	if err := os.WriteFile(path, []byte("junk"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := e.applyExternalEdit(externalEditorDoneMsg{path: path, err: errors.New("exit status 1")}); err == nil {
		t.Fatalf("expected the editor error")
	}
	if e.area.Value() != "before" {
		t.Fatalf("draft changed: %q", e.area.Value())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
