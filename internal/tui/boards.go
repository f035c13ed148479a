package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"journey-cli/internal/board"
	"journey-cli/internal/model"
	"journey-cli/internal/session"
)

type boardListItem struct {
	b model.BoardSummary
}

func (i boardListItem) FilterValue() string { return i.b.Title }
func (i boardListItem) Title() string       { return i.b.Title }
func (i boardListItem) Description() string {
	return fmt.Sprintf("%s · %d stages · %d items", i.b.ID, i.b.StageCount, i.b.ItemCount)
}

func (m appModel) loadBoardsCmd() tea.Cmd {
	ctx, c := m.ctx, m.boards
	return func() tea.Msg {
		boards, err := c.List(ctx)
		return boardsLoadedMsg{boards: boards, err: err}
	}
}

func (m appModel) onBoardsLoaded(msg boardsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := m.fail("Could not load boards", msg.err)
		return m, cmd
	}
	items := make([]list.Item, 0, len(msg.boards))
	for _, b := range msg.boards {
		items = append(items, boardListItem{b: b})
	}
	cmd := m.boardsList.SetItems(items)
	return m, cmd
}

func (m appModel) onBoardCreated(msg boardCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := m.fail("Could not create board", msg.err)
		return m, cmd
	}
	if msg.id == "" {
		return m, nil
	}
	m.setStatus("Created board "+msg.id+".", false)
	return m, m.loadBoardsCmd()
}

func (m appModel) updateBoards(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.creatingBoard {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "esc":
				m.creatingBoard = false
				m.boardPrompt.Blur()
				return m, nil
			case "enter":
				title := m.boardPrompt.Value()
				m.creatingBoard = false
				m.boardPrompt.Blur()
				m.boardPrompt.SetValue("")
				ctx, c := m.ctx, m.boards
				return m, func() tea.Msg {
					id, err := c.Create(ctx, title)
					return boardCreatedMsg{id: id, err: err}
				}
			}
		}
		var cmd tea.Cmd
		m.boardPrompt, cmd = m.boardPrompt.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok && m.boardsList.FilterState() != list.Filtering {
		switch k.String() {
		case "n":
			m.creatingBoard = true
			m.boardPrompt.Focus()
			return m, textinput.Blink
		case "enter":
			if it, ok := m.boardsList.SelectedItem().(boardListItem); ok {
				return m, m.openBoardCmd(it.b.ID)
			}
			return m, nil
		case "r":
			return m, m.loadBoardsCmd()
		case "M":
			return m.openMatches(screenBoards)
		case "L":
			ctx, sess := m.ctx, m.sess
			return m, func() tea.Msg {
				_ = sess.Logout(ctx)
				return logoutDoneMsg{}
			}
		}
	}
	var cmd tea.Cmd
	m.boardsList, cmd = m.boardsList.Update(msg)
	return m, cmd
}

func (m appModel) viewBoards() string {
	header := styleTitle().Render("Your journeys")
	if u, ok := m.currentUser(); ok {
		header += styleMuted().Render("  · " + u.Name + " (" + string(u.Role) + ")")
	}
	var body string
	if len(m.boardsList.Items()) == 0 {
		body = styleMuted().Render("No boards yet. Press n to start one.")
	} else {
		body = m.boardsList.View()
	}
	rows := []string{header, "", body}
	if m.creatingBoard {
		rows = append(rows, "", "New board:", m.boardPrompt.View())
	}
	rows = append(rows, "", styleMuted().Render(strings.Join([]string{
		"enter: open", "n: new board", "/: filter", "r: reload", "M: matches", "L: sign out", "q: quit",
	}, " • ")))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m appModel) openBoardCmd(boardID string) tea.Cmd {
	ctx := m.ctx
	v := board.NewView(boardID, m.remote, m.sess, m.logger)
	return func() tea.Msg {
		if err := v.Load(ctx); err != nil {
			v.Close()
			return boardOpenedMsg{err: err}
		}
		return boardOpenedMsg{view: v}
	}
}

func (m appModel) onBoardOpened(msg boardOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, session.ErrLoginRequired) {
			cmd := m.fail("", msg.err)
			return m, cmd
		}
		m.screen = screenBoards
		cmd := m.fail("Could not open board", msg.err)
		return m, tea.Batch(cmd, m.loadBoardsCmd())
	}
	m.closeBoard()
	m.board = newBoardScreen()
	m.board.help.Width = m.width
	m.board.view = msg.view
	m.board.snap = msg.view.Snapshot()
	m.screen = screenBoard
	m.setStatus("", false)
	return m, nil
}
