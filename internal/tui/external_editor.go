package tui

import (
	"os"
	"os/exec"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

type externalEditorDoneMsg struct {
	path string
	err  error
}

func externalEditorName() string {
	for _, k := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return "vi"
}

// editorArgv splits $VISUAL/$EDITOR into argv. Quotes group words; a backslash escapes
// the next rune outside single quotes.
func editorArgv(s string) []string {
	var argv []string
	var word strings.Builder
	var quote rune
	inWord, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote, inWord = r, true
		case quote == 0 && unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv
}

// openExternalEditor hands the description draft to the user's editor in a temp file.
func (e *editorScreen) openExternalEditor() (tea.Cmd, error) {
	argv := editorArgv(externalEditorName())
	if len(argv) == 0 {
		argv = []string{"vi"}
	}
	f, err := os.CreateTemp("", "journey-md-*.md")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(e.area.Value()); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	_ = f.Close()

	c := exec.Command(argv[0], append(argv[1:], path)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return externalEditorDoneMsg{path: path, err: err}
	}), nil
}

// applyExternalEdit loads the edited file back into the description area and removes it.
func (e *editorScreen) applyExternalEdit(msg externalEditorDoneMsg) (changed bool, err error) {
	defer func() { _ = os.Remove(msg.path) }()
	if msg.err != nil {
		return false, msg.err
	}
	b, err := os.ReadFile(msg.path)
	if err != nil {
		return false, err
	}
	before := e.area.Value()
	e.area.SetValue(string(b))
	return strings.TrimSpace(string(b)) != strings.TrimSpace(before), nil
}
