package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"journey-cli/internal/editor"
	"journey-cli/internal/model"
)

type editorMode int

const (
	editNone editorMode = iota
	editDescription
	editSubtask
	editNote
	editPickFile
)

type editorScreen struct {
	ed     *editor.Editor
	cursor int
	mode   editorMode
	busy   bool

	area   textarea.Model
	input  textinput.Model
	picker filepicker.Model
	// attach is the picked file waiting for its activity note.
	attach  string
	lastDir string

	keys   editorKeyMap
	width  int
	height int
}

func (e *editorScreen) resize(w, h int) {
	e.width, e.height = w, h
	e.area.SetWidth(max(w-4, 20))
	e.area.SetHeight(max(h/3, 5))
	e.picker.Height = max(h-10, 5)
}

func (m appModel) openEditor(it model.Item) (tea.Model, tea.Cmd) {
	if m.board.view == nil {
		return m, nil
	}
	ed := editor.New(it, m.board.view, m.remote, m.logger, editor.WithMaxUpload(m.opts.UploadMaxBytes))
	es := &editorScreen{
		ed:    ed,
		area:  textarea.New(),
		input: newPrompt(""),
		keys:  newEditorKeyMap(),
	}
	es.area.Placeholder = "Describe this step (markdown)…"
	es.area.ShowLineNumbers = false
	es.resize(m.width, m.height)
	m.editor = es
	m.screen = screenEditor
	m.setStatus("", false)
	return m, nil
}

func (m appModel) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	e := m.editor
	if e == nil {
		m.screen = screenBoard
		return m, nil
	}
	switch e.mode {
	case editDescription:
		return m.updateDescription(msg)
	case editSubtask, editNote:
		return m.updateEditorInput(msg)
	case editPickFile:
		return m.updatePicker(msg)
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok || e.busy {
		return m, nil
	}
	draft := e.ed.Draft()
	switch {
	case key.Matches(k, e.keys.Discard):
		e.ed.Discard()
		m.editor = nil
		m.screen = screenBoard
		m.setStatus("Changes discarded.", false)
	case key.Matches(k, e.keys.Save):
		e.busy = true
		m.setStatus("Saving…", false)
		ctx, ed := m.ctx, e.ed
		return m, func() tea.Msg {
			it, err := ed.Save(ctx)
			return itemSavedMsg{item: it, err: err}
		}
	case key.Matches(k, e.keys.Description):
		e.mode = editDescription
		e.area.SetValue(draft.Description)
		return m, e.area.Focus()
	case key.Matches(k, e.keys.Status):
		m.reportEdit(e.ed.SetStatus(nextStatus(draft.Status)))
	case key.Matches(k, e.keys.AddSubtask):
		return m.startEditorInput(editSubtask, "New subtask")
	case key.Matches(k, e.keys.Up):
		e.cursor = max(e.cursor-1, 0)
	case key.Matches(k, e.keys.Down):
		e.cursor = min(e.cursor+1, max(len(draft.Subtasks)-1, 0))
	case key.Matches(k, e.keys.Toggle):
		if len(draft.Subtasks) > 0 {
			m.reportEdit(e.ed.ToggleSubtask(e.cursor))
		}
	case key.Matches(k, e.keys.Remove):
		if len(draft.Subtasks) > 0 {
			m.reportEdit(e.ed.RemoveSubtask(e.cursor))
			e.cursor = min(e.cursor, max(len(draft.Subtasks)-2, 0))
		}
	case key.Matches(k, e.keys.Note):
		e.attach = ""
		return m.startEditorInput(editNote, "What happened?")
	case key.Matches(k, e.keys.Attach):
		return m, e.openPicker()
	}
	return m, nil
}

func (m *appModel) reportEdit(err error) {
	if err != nil {
		m.setStatus(err.Error(), true)
	}
}

func nextStatus(cur model.Status) model.Status {
	for i, s := range model.Statuses {
		if s == cur {
			return model.Statuses[(i+1)%len(model.Statuses)]
		}
	}
	return model.Statuses[0]
}

func (m appModel) startEditorInput(mode editorMode, placeholder string) (tea.Model, tea.Cmd) {
	m.editor.mode = mode
	m.editor.input = newPrompt(placeholder)
	m.editor.input.Focus()
	return m, textinput.Blink
}

func (m appModel) updateDescription(msg tea.Msg) (tea.Model, tea.Cmd) {
	e := m.editor
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			e.mode = editNone
			e.area.Blur()
			return m, nil
		case "ctrl+s":
			m.reportEdit(e.ed.SetDescription(e.area.Value()))
			e.mode = editNone
			e.area.Blur()
			return m, nil
		case "ctrl+g":
			cmd, err := e.openExternalEditor()
			if err != nil {
				m.setStatus("Editor failed: "+err.Error(), true)
				return m, nil
			}
			return m, cmd
		}
	}
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	return m, cmd
}

func (m appModel) updateEditorInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	e := m.editor
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			e.mode = editNone
			e.attach = ""
			return m, nil
		case "enter":
			text := e.input.Value()
			mode := e.mode
			e.mode = editNone
			if mode == editSubtask {
				m.reportEdit(e.ed.AddSubtask(text))
				return m, nil
			}
			path := e.attach
			e.attach = ""
			if strings.TrimSpace(text) == "" && path == "" {
				return m, nil
			}
			e.busy = true
			if path != "" {
				m.setStatus("Uploading "+filepath.Base(path)+"…", false)
			}
			ctx, ed := m.ctx, e.ed
			return m, func() tea.Msg {
				var up *editor.Upload
				if path != "" {
					u, closer, err := editor.OpenUpload(path)
					if err != nil {
						return activityAddedMsg{err: err}
					}
					defer closer.Close()
					up = u
				}
				return activityAddedMsg{err: ed.AddActivity(ctx, text, up)}
			}
		}
	}
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return m, cmd
}

func (e *editorScreen) openPicker() tea.Cmd {
	fp := filepicker.New()
	fp.AllowedTypes = nil
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.AutoHeight = false
	fp.Height = max(e.height-10, 5)
	fp.Cursor = "›"
	fp.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "up"))
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.DisabledFile = styleMuted()
	fp.Styles.FileSize = styleMuted().Width(fp.Styles.FileSize.GetWidth()).Align(lipgloss.Right)

	dir := e.lastDir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		} else {
			dir = "."
		}
	}
	fp.CurrentDirectory = dir
	e.picker = fp
	e.mode = editPickFile
	return fp.Init()
}

func (m appModel) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	e := m.editor
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		e.mode = editNone
		return m, nil
	}
	var cmd tea.Cmd
	e.picker, cmd = e.picker.Update(msg)
	if ok, path := e.picker.DidSelectFile(msg); ok {
		e.lastDir = filepath.Dir(path)
		e.attach = path
		e.mode = editNote
		e.input = newPrompt("Note for " + filepath.Base(path) + " (optional)")
		e.input.Focus()
		return m, textinput.Blink
	}
	return m, cmd
}

func (m appModel) onExternalEdit(msg externalEditorDoneMsg) (tea.Model, tea.Cmd) {
	e := m.editor
	if e == nil {
		_ = os.Remove(msg.path)
		return m, nil
	}
	changed, err := e.applyExternalEdit(msg)
	switch {
	case err != nil:
		m.setStatus("Editor failed: "+err.Error(), true)
	case changed:
		m.setStatus("Updated from "+externalEditorName()+" (ctrl+s to keep).", false)
	default:
		m.setStatus("No changes from "+externalEditorName()+".", false)
	}
	return m, nil
}

func (m appModel) onActivityAdded(msg activityAddedMsg) (tea.Model, tea.Cmd) {
	if m.editor != nil {
		m.editor.busy = false
	}
	if msg.err != nil {
		cmd := m.fail("Activity not added", msg.err)
		return m, cmd
	}
	m.setStatus("Activity added (unsaved).", false)
	return m, nil
}

func (m appModel) onItemSaved(msg itemSavedMsg) (tea.Model, tea.Cmd) {
	if m.editor != nil {
		m.editor.busy = false
	}
	if msg.err != nil {
		cmd := m.fail("Could not save", msg.err)
		return m, cmd
	}
	m.editor = nil
	m.screen = screenBoard
	if m.board.view != nil {
		m.board.accept(m.board.view.Snapshot())
	}
	m.setStatus("Saved “"+msg.item.Content+"”.", false)
	return m, nil
}

func (m appModel) viewEditor() string {
	e := m.editor
	if e == nil {
		return ""
	}
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	inner := max(w-4, 20)
	d := e.ed.Draft()

	rows := []string{
		styleTitle().Render(d.Content),
		statusLabel(d.Status) + styleMuted().Render(fmt.Sprintf("  %s %d%%", progressBar(d.Progress, 20), d.Progress)),
		"",
		styleTitle().Render("Description"),
	}
	if e.mode == editDescription {
		rows = append(rows, e.area.View(), styleMuted().Render("ctrl+s: keep • ctrl+g: open in $EDITOR • esc: cancel"))
	} else if desc := RenderMarkdown(d.Description, inner, m.opts.MarkdownStyle); desc != "" {
		rows = append(rows, desc)
	} else {
		rows = append(rows, styleMuted().Render("(none)"))
	}

	rows = append(rows, "", styleTitle().Render("Subtasks"))
	if len(d.Subtasks) == 0 {
		rows = append(rows, styleMuted().Render("(none)"))
	}
	for i, st := range d.Subtasks {
		line := subtaskLine(i, st, inner-2)
		if i == e.cursor && e.mode == editNone {
			line = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Render("› " + line)
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}
	if e.mode == editSubtask {
		rows = append(rows, e.input.View())
	}

	rows = append(rows, "", styleTitle().Render("Activity"))
	if len(d.Activities) == 0 {
		rows = append(rows, styleMuted().Render("(none)"))
	}
	for _, a := range d.Activities {
		rows = append(rows, activityLine(a, inner))
	}
	if e.mode == editNote {
		if e.attach != "" {
			rows = append(rows, styleMuted().Render("Attaching "+e.attach))
		}
		rows = append(rows, e.input.View())
	}
	if e.mode == editPickFile {
		rows = append(rows, "", styleTitle().Render("Attach a file"), e.picker.View())
	}

	rows = append(rows, "", m.helpView(e.keys))
	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
