package tui

import "github.com/charmbracelet/bubbles/key"

type boardKeyMap struct {
	Left, Right, Up, Down key.Binding
	Pick                  key.Binding
	Cancel                key.Binding
	Open                  key.Binding
	NewItem, NewStage     key.Binding
	DeleteItem            key.Binding
	DeleteStage           key.Binding
	Reload                key.Binding
	Matches               key.Binding
	Quit                  key.Binding
}

func newBoardKeyMap() boardKeyMap {
	return boardKeyMap{
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "stage")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "stage")),
		Up:          key.NewBinding(key.WithKeys("up", "k", "ctrl+p"), key.WithHelp("↑/k", "item")),
		Down:        key.NewBinding(key.WithKeys("down", "j", "ctrl+n"), key.WithHelp("↓/j", "item")),
		Pick:        key.NewBinding(key.WithKeys(" ", "m"), key.WithHelp("space", "pick up / drop")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel / back")),
		Open:        key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		NewItem:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add item")),
		NewStage:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add stage")),
		DeleteItem:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete item")),
		DeleteStage: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete stage")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Matches:     key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "matches")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Down, k.Pick, k.Open, k.NewItem, k.NewStage, k.DeleteItem, k.Cancel, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Pick, k.Cancel, k.Open},
		{k.NewItem, k.NewStage, k.DeleteItem, k.DeleteStage},
		{k.Reload, k.Matches, k.Quit},
	}
}

type editorKeyMap struct {
	Description key.Binding
	Status      key.Binding
	AddSubtask  key.Binding
	Toggle      key.Binding
	Remove      key.Binding
	Up, Down    key.Binding
	Note        key.Binding
	Attach      key.Binding
	Save        key.Binding
	Discard     key.Binding
}

func newEditorKeyMap() editorKeyMap {
	return editorKeyMap{
		Description: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "description")),
		Status:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		AddSubtask:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "subtask")),
		Toggle:      key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Remove:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		Up:          key.NewBinding(key.WithKeys("up", "k")),
		Down:        key.NewBinding(key.WithKeys("down", "j")),
		Note:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "note")),
		Attach:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "attach")),
		Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Discard:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "discard")),
	}
}

func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Description, k.Status, k.AddSubtask, k.Toggle, k.Remove, k.Note, k.Attach, k.Save, k.Discard}
}

func (k editorKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
