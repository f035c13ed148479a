package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"journey-cli/internal/board"
	"journey-cli/internal/model"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptNewItem
	promptNewStage
	promptDeleteItem
	promptDeleteStage
)

const (
	columnGap     = 2
	minColumnW    = 22
	cardHeight    = 4 // border + title + meta
	boardChromeH  = 7
	defaultWidth  = 100
	defaultHeight = 30
)

type boardScreen struct {
	view *board.View
	snap board.Snapshot

	col, row int
	// held is the item picked up for a move; it is dropped on the focused stage.
	held *board.DragPayload

	prompt promptKind
	input  textinput.Model
	keys   boardKeyMap
	help   help.Model
}

func newBoardScreen() boardScreen {
	return boardScreen{
		input: newPrompt(""),
		keys:  newBoardKeyMap(),
		help:  help.New(),
	}
}

func (b *boardScreen) clamp() {
	n := len(b.snap.Stages)
	if n == 0 {
		b.col, b.row = 0, 0
		return
	}
	b.col = min(max(b.col, 0), n-1)
	items := len(b.snap.Stages[b.col].Items)
	if items == 0 {
		b.row = 0
		return
	}
	b.row = min(max(b.row, 0), items-1)
}

func (b boardScreen) selectedStage() (model.Stage, bool) {
	if b.col < 0 || b.col >= len(b.snap.Stages) {
		return model.Stage{}, false
	}
	return b.snap.Stages[b.col], true
}

func (b boardScreen) selectedItem() (model.Item, bool) {
	st, ok := b.selectedStage()
	if !ok || b.row < 0 || b.row >= len(st.Items) {
		return model.Item{}, false
	}
	return st.Items[b.row], true
}

// accept takes a newer snapshot; results of overlapping calls may arrive out of order.
func (b *boardScreen) accept(s board.Snapshot) {
	if s.Version < b.snap.Version {
		return
	}
	b.snap = s
	if b.held != nil {
		if _, ok := s.FindItem(b.held.ItemID); !ok {
			b.held = nil
		}
	}
	b.clamp()
}

func (m appModel) boardOp(op string, fn func(ctx context.Context, v *board.View) error) tea.Cmd {
	ctx, v := m.ctx, m.board.view
	if v == nil {
		return nil
	}
	return func() tea.Msg {
		return boardOpMsg{op: op, view: v, err: fn(ctx, v)}
	}
}

var opLabels = map[string]string{
	"reload":       "Could not reload board",
	"move":         "Could not move item",
	"item.create":  "Could not add item",
	"item.delete":  "Could not delete item",
	"stage.create": "Could not add stage",
	"stage.delete": "Could not delete stage",
}

func (m appModel) onBoardOp(msg boardOpMsg) (tea.Model, tea.Cmd) {
	if msg.view == nil || msg.view != m.board.view {
		return m, nil
	}
	m.board.accept(msg.view.Snapshot())
	if msg.err != nil {
		if errors.Is(msg.err, board.ErrClosed) {
			return m, nil
		}
		cmd := m.fail(opLabels[msg.op], msg.err)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateBoard(msg tea.Msg) (tea.Model, tea.Cmd) {
	b := &m.board
	if b.prompt != promptNone {
		return m.updateBoardPrompt(msg)
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(k, b.keys.Quit):
		return m, tea.Quit
	case key.Matches(k, b.keys.Left):
		b.col--
		b.row = 0
		b.clamp()
	case key.Matches(k, b.keys.Right):
		b.col++
		b.row = 0
		b.clamp()
	case key.Matches(k, b.keys.Up):
		b.row--
		b.clamp()
	case key.Matches(k, b.keys.Down):
		b.row++
		b.clamp()

	case key.Matches(k, b.keys.Pick):
		if b.held == nil {
			it, ok := b.selectedItem()
			if !ok {
				return m, nil
			}
			b.held = &board.DragPayload{ItemID: it.ID, SourceStageID: it.StageID}
			m.setStatus("Moving “"+it.Content+"”: pick a stage and press space (esc cancels).", false)
			return m, nil
		}
		st, ok := b.selectedStage()
		if !ok {
			return m, nil
		}
		p := *b.held
		b.held = nil
		m.setStatus("", false)
		return m, m.boardOp("move", func(ctx context.Context, v *board.View) error {
			return v.Drop(ctx, p, st.ID)
		})

	case key.Matches(k, b.keys.Cancel):
		if b.held != nil {
			b.held = nil
			m.setStatus("Move cancelled.", false)
			return m, nil
		}
		m.closeBoard()
		m.screen = screenBoards
		m.setStatus("", false)
		return m, m.loadBoardsCmd()

	case key.Matches(k, b.keys.Open):
		it, ok := b.selectedItem()
		if !ok {
			return m, nil
		}
		return m.openEditor(it)

	case key.Matches(k, b.keys.NewItem):
		if _, ok := b.selectedStage(); !ok {
			m.setStatus("Add a stage first (A).", true)
			return m, nil
		}
		return m.startPrompt(promptNewItem, "Item title")
	case key.Matches(k, b.keys.NewStage):
		return m.startPrompt(promptNewStage, "Stage title")
	case key.Matches(k, b.keys.DeleteItem):
		if _, ok := b.selectedItem(); ok {
			b.prompt = promptDeleteItem
		}
	case key.Matches(k, b.keys.DeleteStage):
		if _, ok := b.selectedStage(); ok {
			b.prompt = promptDeleteStage
		}
	case key.Matches(k, b.keys.Reload):
		return m, m.boardOp("reload", func(ctx context.Context, v *board.View) error { return v.Load(ctx) })
	case key.Matches(k, b.keys.Matches):
		return m.openMatches(screenBoard)
	case k.String() == "?":
		b.help.ShowAll = !b.help.ShowAll
	}
	return m, nil
}

func (m appModel) startPrompt(kind promptKind, placeholder string) (tea.Model, tea.Cmd) {
	m.board.prompt = kind
	m.board.input = newPrompt(placeholder)
	m.board.input.Focus()
	return m, textinput.Blink
}

func (m appModel) updateBoardPrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	b := &m.board
	k, isKey := msg.(tea.KeyMsg)

	if b.prompt == promptDeleteItem || b.prompt == promptDeleteStage {
		if !isKey {
			return m, nil
		}
		kind := b.prompt
		b.prompt = promptNone
		if k.String() != "y" {
			return m, nil
		}
		if kind == promptDeleteItem {
			it, ok := b.selectedItem()
			if !ok {
				return m, nil
			}
			return m, m.boardOp("item.delete", func(ctx context.Context, v *board.View) error {
				return v.DeleteItem(ctx, it.StageID, it.ID)
			})
		}
		st, ok := b.selectedStage()
		if !ok {
			return m, nil
		}
		return m, m.boardOp("stage.delete", func(ctx context.Context, v *board.View) error {
			return v.DeleteStage(ctx, st.ID)
		})
	}

	if isKey {
		switch k.String() {
		case "esc":
			b.prompt = promptNone
			return m, nil
		case "enter":
			text := b.input.Value()
			kind := b.prompt
			b.prompt = promptNone
			if kind == promptNewStage {
				return m, m.boardOp("stage.create", func(ctx context.Context, v *board.View) error {
					return v.CreateStage(ctx, text)
				})
			}
			st, ok := b.selectedStage()
			if !ok {
				return m, nil
			}
			return m, m.boardOp("item.create", func(ctx context.Context, v *board.View) error {
				_, err := v.CreateItem(ctx, st.ID, text)
				return err
			})
		}
	}
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return m, cmd
}

func (m appModel) viewBoard() string {
	b := m.board
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	title := styleTitle().Render(b.snap.BoardID)
	if !b.snap.Loaded {
		title += styleMuted().Render("  loading…")
	}
	var footer string
	switch b.prompt {
	case promptNewItem, promptNewStage:
		label := "New item:"
		if b.prompt == promptNewStage {
			label = "New stage:"
		}
		footer = label + " " + b.input.View()
	case promptDeleteItem:
		it, _ := b.selectedItem()
		footer = fmt.Sprintf("Delete item “%s”? (y/n)", it.Content)
	case promptDeleteStage:
		st, _ := b.selectedStage()
		footer = fmt.Sprintf("Delete stage “%s” and all %d items? (y/n)", st.Title, len(st.Items))
	default:
		footer = b.help.View(b.keys)
	}
	cols := renderColumns(b, w, max(h-boardChromeH, cardHeight))
	return lipgloss.JoinVertical(lipgloss.Left, title, "", cols, "", footer)
}

// renderColumns lays stages out side by side, scrolling horizontally to keep the focused
// stage visible.
func renderColumns(b boardScreen, width, height int) string {
	n := len(b.snap.Stages)
	if n == 0 {
		return styleMuted().Render("This board has no stages. Press A to add one.")
	}
	fit := max(1, (width+columnGap)/(minColumnW+columnGap))
	visible := min(n, fit)
	start := 0
	if b.col >= visible {
		start = b.col - visible + 1
	}
	colW := (width - columnGap*(visible-1)) / visible
	colW = max(colW, minColumnW)
	perCol := max(1, (height-2)/cardHeight)

	rendered := make([]string, 0, visible)
	for ci := start; ci < start+visible; ci++ {
		rendered = append(rendered, renderColumn(b, ci, colW, perCol))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, interleave(rendered, strings.Repeat(" ", columnGap))...)
	if start > 0 || start+visible < n {
		out += "\n" + styleMuted().Render(fmt.Sprintf("stages %d-%d of %d", start+1, start+visible, n))
	}
	return out
}

func renderColumn(b boardScreen, ci, colW, perCol int) string {
	st := b.snap.Stages[ci]
	focused := ci == b.col
	head := fmt.Sprintf("%s (%d)", st.Title, len(st.Items))
	if b.held != nil && focused && b.held.SourceStageID != st.ID {
		head = "▼ " + head
	}
	lines := []string{styleHeader(focused).Width(colW).Render(xansi.Truncate(head, colW-2, "…"))}

	first := 0
	if focused && b.row >= perCol {
		first = b.row - perCol + 1
	}
	last := min(len(st.Items), first+perCol)
	if first > 0 {
		lines = append(lines, styleMuted().Render(fmt.Sprintf("↑ %d more", first)))
	}
	for ri := first; ri < last; ri++ {
		it := st.Items[ri]
		held := b.held != nil && b.held.ItemID == it.ID
		lines = append(lines, renderCard(it, colW, focused && ri == b.row, held))
	}
	if last < len(st.Items) {
		lines = append(lines, styleMuted().Render(fmt.Sprintf("↓ %d more", len(st.Items)-last)))
	}
	if len(st.Items) == 0 {
		lines = append(lines, styleMuted().Render("(empty)"))
	}
	return lipgloss.NewStyle().Width(colW).Render(strings.Join(lines, "\n"))
}

func renderCard(it model.Item, colW int, selected, held bool) string {
	inner := max(colW-4, 4) // border + padding
	title := xansi.Truncate(strings.TrimSpace(it.Content), inner, "…")
	meta := statusLabel(it.Status) + styleMuted().Render(fmt.Sprintf(" %d%%", it.Progress))
	if n := len(it.Subtasks); n > 0 {
		done := 0
		for _, s := range it.Subtasks {
			if s.Completed {
				done++
			}
		}
		meta += styleMuted().Render(fmt.Sprintf(" · %d/%d", done, n))
	}
	return styleCard(selected, held).Width(colW - 2).Render(title + "\n" + xansi.Truncate(meta, inner, "…"))
}

func interleave(xs []string, sep string) []string {
	out := make([]string, 0, len(xs)*2)
	for i, x := range xs {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, x)
	}
	return out
}
