package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"journey-cli/internal/api"
	"journey-cli/internal/board"
	"journey-cli/internal/logging"
	"journey-cli/internal/matches"
	"journey-cli/internal/model"
	"journey-cli/internal/session"
)

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenBoards
	screenBoard
	screenEditor
	screenMatches
)

type appModel struct {
	ctx    context.Context
	opts   Options
	sess   *session.Session
	remote Remote
	logger *log.Logger

	width  int
	height int

	screen screen

	// One-line feedback under the current screen.
	status    string
	statusErr bool

	auth authForm

	boards        *board.Collection
	boardsList    list.Model
	boardPrompt   textinput.Model
	creatingBoard bool

	board boardScreen

	editor *editorScreen

	matches       *matches.View
	matchState    matches.State
	opposite      []model.User
	showOpposite  bool
	matchCursor   int
	matchesReturn screen
}

func newAppModel(ctx context.Context, opts Options) appModel {
	logger := logging.OrDiscard(opts.Logger)
	m := appModel{
		ctx:    ctx,
		opts:   opts,
		sess:   opts.Session,
		remote: opts.Remote,
		logger: logger,
		screen: screenLogin,
	}
	m.auth = newAuthForm(false)
	m.boards = board.NewCollection(opts.Remote, opts.Session, logger)
	m.boardsList = newList("Boards", []list.Item{})
	m.boardPrompt = newPrompt("Board title")
	m.matches = matches.New(opts.Remote, opts.Session, logger)
	m.board = newBoardScreen()
	if m.sess != nil && m.sess.Authenticated() {
		m.screen = screenBoards
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.screen == screenLogin {
		return textinput.Blink
	}
	if id := strings.TrimSpace(m.opts.BoardID); id != "" {
		return m.openBoardCmd(id)
	}
	return m.loadBoardsCmd()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.boardsList.SetSize(msg.Width, max(msg.Height-4, 3))
		m.board.help.Width = msg.Width
		if m.editor != nil {
			m.editor.resize(msg.Width, msg.Height)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case loginDoneMsg:
		return m.onLogin(msg)
	case signupDoneMsg:
		return m.onSignup(msg)
	case logoutDoneMsg:
		m.closeBoard()
		m.screen = screenLogin
		m.auth = newAuthForm(false)
		m.setStatus("Signed out.", false)
		return m, textinput.Blink
	case boardsLoadedMsg:
		return m.onBoardsLoaded(msg)
	case boardCreatedMsg:
		return m.onBoardCreated(msg)
	case boardOpenedMsg:
		return m.onBoardOpened(msg)
	case boardOpMsg:
		return m.onBoardOp(msg)
	case itemSavedMsg:
		return m.onItemSaved(msg)
	case activityAddedMsg:
		return m.onActivityAdded(msg)
	case externalEditorDoneMsg:
		return m.onExternalEdit(msg)
	case matchesLoadedMsg:
		return m.onMatchesLoaded(msg)
	case oppositeLoadedMsg:
		return m.onOppositeLoaded(msg)
	case linkDoneMsg:
		return m.onLinkDone(msg)
	}

	switch m.screen {
	case screenLogin, screenSignup:
		return m.updateAuth(msg)
	case screenBoards:
		return m.updateBoards(msg)
	case screenBoard:
		return m.updateBoard(msg)
	case screenEditor:
		return m.updateEditor(msg)
	case screenMatches:
		return m.updateMatches(msg)
	}
	return m, nil
}

func (m appModel) View() string {
	var body string
	switch m.screen {
	case screenLogin, screenSignup:
		body = m.viewAuth()
	case screenBoards:
		body = m.viewBoards()
	case screenBoard:
		body = m.viewBoard()
	case screenEditor:
		body = m.viewEditor()
	case screenMatches:
		body = m.viewMatches()
	}
	if m.status != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", styleStatusLine(m.statusErr).Render(m.status))
	}
	return body
}

func (m *appModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// fail reports err on the status line. A lost session sends the user back to sign in.
func (m *appModel) fail(prefix string, err error) tea.Cmd {
	if errors.Is(err, session.ErrLoginRequired) {
		m.closeBoard()
		m.editor = nil
		m.screen = screenLogin
		m.auth = newAuthForm(false)
		m.setStatus(session.ErrLoginRequired.Error(), true)
		return textinput.Blink
	}
	msg := api.DetailOf(err)
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	m.setStatus(msg, true)
	return nil
}

func (m *appModel) closeBoard() {
	if m.board.view != nil {
		m.board.view.Close()
		m.board.view = nil
	}
}

func (m appModel) currentUser() (model.User, bool) {
	if m.sess == nil {
		return model.User{}, false
	}
	return m.sess.User()
}

func (m appModel) helpView(km help.KeyMap) string {
	h := help.New()
	h.Width = m.width
	return h.View(km)
}

func newPrompt(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 200
	in.Prompt = "› "
	in.PromptStyle = lipgloss.NewStyle().Foreground(colorAccent)
	return in
}

func newList(title string, items []list.Item) list.Model {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(colorAccent).BorderForeground(colorAccent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(colorAccent).BorderForeground(colorAccent)
	l := list.New(items, d, 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("board", "boards")
	// esc means "back" here, not quit.
	l.KeyMap.Quit.SetKeys("q")
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	return l
}
