package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"journey-cli/internal/matches"
	"journey-cli/internal/model"
)

func (m appModel) openMatches(from screen) (tea.Model, tea.Cmd) {
	m.matchesReturn = from
	m.screen = screenMatches
	m.showOpposite = false
	m.matchCursor = 0
	m.matchState = matches.State{}
	m.setStatus("", false)
	return m, m.loadMatchesCmd()
}

func (m appModel) loadMatchesCmd() tea.Cmd {
	ctx, mv := m.ctx, m.matches
	return func() tea.Msg {
		st, err := mv.Suggestions(ctx)
		return matchesLoadedMsg{state: st, err: err}
	}
}

func (m appModel) loadOppositeCmd() tea.Cmd {
	ctx, mv := m.ctx, m.matches
	return func() tea.Msg {
		users, err := mv.OppositeRole(ctx)
		return oppositeLoadedMsg{users: users, err: err}
	}
}

func (m appModel) onMatchesLoaded(msg matchesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := m.fail("", msg.err)
		return m, cmd
	}
	m.matchState = msg.state
	m.matchCursor = 0
	return m, nil
}

func (m appModel) onOppositeLoaded(msg oppositeLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := m.fail("Could not list people", msg.err)
		return m, cmd
	}
	m.opposite = msg.users
	m.matchCursor = 0
	return m, nil
}

func (m appModel) onLinkDone(msg linkDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := m.fail("Could not link", msg.err)
		return m, cmd
	}
	m.setStatus("Linked with "+msg.name+".", false)
	return m, nil
}

func (m appModel) matchCount() int {
	if m.showOpposite {
		return len(m.opposite)
	}
	return len(m.matchState.Suggestions)
}

// selectedPerson returns the id and name under the cursor.
func (m appModel) selectedPerson() (string, string, bool) {
	if m.showOpposite {
		if m.matchCursor < len(m.opposite) {
			u := m.opposite[m.matchCursor]
			return u.ID, u.Name, true
		}
		return "", "", false
	}
	if m.matchCursor < len(m.matchState.Suggestions) {
		s := m.matchState.Suggestions[m.matchCursor]
		return s.ID, s.Name, true
	}
	return "", "", false
}

func (m appModel) updateMatches(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "esc":
		m.screen = m.matchesReturn
		if m.screen == screenBoards {
			return m, m.loadBoardsCmd()
		}
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.matchCursor = max(m.matchCursor-1, 0)
	case "down", "j":
		m.matchCursor = min(m.matchCursor+1, max(m.matchCount()-1, 0))
	case "o":
		m.showOpposite = !m.showOpposite
		m.matchCursor = 0
		if m.showOpposite {
			return m, m.loadOppositeCmd()
		}
		return m, m.loadMatchesCmd()
	case "r":
		if m.showOpposite {
			return m, m.loadOppositeCmd()
		}
		return m, m.loadMatchesCmd()
	case "l":
		id, name, ok := m.selectedPerson()
		me, signedIn := m.currentUser()
		if !ok || !signedIn {
			return m, nil
		}
		discipler, disciple := me.ID, id
		if me.Role == model.RoleDisciple {
			discipler, disciple = id, me.ID
		}
		ctx, mv := m.ctx, m.matches
		return m, func() tea.Msg {
			return linkDoneMsg{name: name, err: mv.Link(ctx, discipler, disciple)}
		}
	}
	return m, nil
}

func (m appModel) viewMatches() string {
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	inner := max(w-4, 20)
	title := "Suggested matches"
	if m.showOpposite {
		title = "Everyone of the opposite role"
	}
	rows := []string{styleTitle().Render(title), ""}

	switch {
	case m.showOpposite:
		if len(m.opposite) == 0 {
			rows = append(rows, styleMuted().Render("Nobody yet."))
		}
		for i, u := range m.opposite {
			line := fmt.Sprintf("%s · %s · %s", u.Name, u.Location, strings.Join(u.Interests, ", "))
			rows = append(rows, m.matchRow(i, line, inner))
		}
	case !m.matchState.Loaded:
		rows = append(rows, styleMuted().Render("Loading…"))
	case m.matchState.Empty:
		rows = append(rows, styleMuted().Render(matches.EmptyMessage))
	default:
		for i, s := range m.matchState.Suggestions {
			var why []string
			if len(s.CommonInterests) > 0 {
				why = append(why, "shares "+strings.Join(s.CommonInterests, ", "))
			}
			if s.WithinAgeRange {
				why = append(why, "similar age")
			}
			if s.SameLocation {
				why = append(why, "nearby")
			}
			line := fmt.Sprintf("%s · score %g · %s", s.Name, s.MatchScore, strings.Join(why, "; "))
			rows = append(rows, m.matchRow(i, line, inner))
		}
	}
	rows = append(rows, "", styleMuted().Render("↑/↓: move • l: link as discipleship • o: toggle list • r: reload • esc: back"))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m appModel) matchRow(i int, line string, width int) string {
	line = xansi.Truncate(line, width-2, "…")
	if i == m.matchCursor {
		return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Render("› " + line)
	}
	return "  " + line
}
