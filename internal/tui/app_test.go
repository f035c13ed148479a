package tui

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"journey-cli/internal/api"
	"journey-cli/internal/model"
	"journey-cli/internal/remotetest"
	"journey-cli/internal/session"
)

var (
	ruth = model.User{ID: "u1", Name: "Ruth", Email: "ruth@example.com", Role: model.RoleDisciple,
		Age: 30, Location: "Accra", Interests: model.StringList{"prayer"}}
	naomi = model.User{ID: "u2", Name: "Naomi", Email: "naomi@example.com", Role: model.RoleDiscipler,
		Age: 33, Location: "Accra", Interests: model.StringList{"prayer"}}
)

type harness struct {
	t    *testing.T
	srv  *remotetest.Server
	sess *session.Session
	m    appModel
}

func newHarness(t *testing.T, signedIn bool, boardID string) *harness {
	t.Helper()
	srv := remotetest.New(t)
	srv.AddUser(ruth, "pw")
	srv.AddUser(naomi, "pw")
	srv.SeedBoard("b", "Walk", ruth.ID,
		model.Stage{ID: "s1", Title: "Newbie", Items: []model.Item{
			{ID: "i1", Content: "Read John"},
			{ID: "i2", Content: "Pray"},
		}},
		model.Stage{ID: "s2", Title: "Growing"},
	)

	ctx := context.Background()
	client := api.New(srv.URL, 5*time.Second, nil, nil)
	sess, err := session.Open(ctx, t.TempDir(), client, nil)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	if signedIn {
		if _, err := sess.Login(ctx, ruth.Email, "pw"); err != nil {
			t.Fatalf("login: %v", err)
		}
	}

	m := newAppModel(ctx, Options{
		Session:       sess,
		Remote:        client.WithTokens(sess),
		BoardID:       boardID,
		MarkdownStyle: "notty",
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	h := &harness{t: t, srv: srv, sess: sess, m: next.(appModel)}
	t.Cleanup(func() { h.m.closeBoard() })
	return h
}

// run executes cmd and feeds back the messages the app defines, following the commands they return.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	case loginDoneMsg, signupDoneMsg, logoutDoneMsg, boardsLoadedMsg, boardCreatedMsg,
		boardOpenedMsg, boardOpMsg, itemSavedMsg, activityAddedMsg,
		matchesLoadedMsg, oppositeLoadedMsg, linkDoneMsg:
		next, c := h.m.Update(msg)
		h.m = next.(appModel)
		h.run(c)
	}
}

// key sends one key and returns the command it produced without running it.
func (h *harness) key(k tea.KeyMsg) tea.Cmd {
	next, cmd := h.m.Update(k)
	h.m = next.(appModel)
	return cmd
}

// press sends one key and runs what it produced.
func (h *harness) press(k tea.KeyMsg) {
	h.t.Helper()
	h.run(h.key(k))
}

// typeText inserts text into whatever input has focus.
func (h *harness) typeText(s string) {
	_ = h.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter  = tea.KeyMsg{Type: tea.KeyEnter}
	escape = tea.KeyMsg{Type: tea.KeyEsc}
	space  = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	ctrlS  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func (h *harness) openBoard() {
	h.t.Helper()
	h.run(h.m.Init())
	if h.m.screen != screenBoard || h.m.board.view == nil {
		h.t.Fatalf("board did not open: screen=%v status=%q", h.m.screen, h.m.status)
	}
}

func TestLoginLoadsBoards(t *testing.T) {
	h := newHarness(t, false, "")
	if h.m.screen != screenLogin {
		t.Fatalf("expected login screen, got %v", h.m.screen)
	}

	h.typeText(ruth.Email)
	h.press(enter)
	h.typeText("pw")
	h.press(enter)

	if h.m.screen != screenBoards {
		t.Fatalf("expected boards screen, got %v (status %q)", h.m.screen, h.m.status)
	}
	if !h.sess.Authenticated() {
		t.Fatalf("session should be authenticated")
	}
	items := h.m.boardsList.Items()
	if len(items) != 1 || items[0].(boardListItem).b.ID != "b" {
		t.Fatalf("unexpected boards: %#v", items)
	}
	if !strings.Contains(h.m.View(), "Walk") {
		t.Fatalf("board list should render the title:\n%s", h.m.View())
	}
}

func TestLoginFailureStaysOnForm(t *testing.T) {
	h := newHarness(t, false, "")

	h.typeText(ruth.Email)
	h.press(enter)
	h.typeText("wrong")
	h.press(enter)

	if h.m.screen != screenLogin {
		t.Fatalf("expected to stay on login, got %v", h.m.screen)
	}
	if !h.m.statusErr || !strings.Contains(h.m.status, "Invalid credentials") {
		t.Fatalf("status = %q", h.m.status)
	}
	if h.m.auth.busy {
		t.Fatalf("form should accept input again")
	}
}

func TestSignupReturnsToLogin(t *testing.T) {
	h := newHarness(t, false, "")
	h.press(tea.KeyMsg{Type: tea.KeyCtrlT})
	if h.m.screen != screenSignup {
		t.Fatalf("expected signup screen, got %v", h.m.screen)
	}

	for _, v := range []string{"Boaz", "boaz@example.com", "pw", "discipler", "60", "Bethlehem"} {
		h.typeText(v)
		h.press(enter)
	}
	h.typeText("fields, prayer")
	h.press(enter)

	if h.m.screen != screenLogin {
		t.Fatalf("expected login after signup, got %v (status %q)", h.m.screen, h.m.status)
	}
	if got := h.m.auth.value(fieldEmail); got != "boaz@example.com" {
		t.Fatalf("email not carried over: %q", got)
	}
	if h.sess.Authenticated() {
		t.Fatalf("signup must not sign in")
	}
}

func TestPickAndDropMovesItem(t *testing.T) {
	h := newHarness(t, true, "b")
	h.openBoard()

	h.press(space)
	if h.m.board.held == nil || h.m.board.held.ItemID != "i1" {
		t.Fatalf("expected i1 held, got %#v", h.m.board.held)
	}
	h.press(runes("l"))
	if !strings.Contains(h.m.View(), "▼") {
		t.Fatalf("expected a drop marker on the focused stage:\n%s", h.m.View())
	}
	h.press(space)

	if h.m.board.held != nil {
		t.Fatalf("hold should be released after the drop")
	}
	it, _ := h.srv.Item("i1")
	if it.StageID != "s2" {
		t.Fatalf("server stage = %q", it.StageID)
	}
	st, _ := h.m.board.snap.Stage("s2")
	if len(st.Items) != 1 || st.Items[0].ID != "i1" {
		t.Fatalf("snapshot not refreshed: %#v", st.Items)
	}
}

func TestCancelledPickDoesNothing(t *testing.T) {
	h := newHarness(t, true, "b")
	h.openBoard()

	h.press(space)
	h.press(runes("l"))
	h.press(escape)
	if h.m.board.held != nil || h.m.screen != screenBoard {
		t.Fatalf("esc should only drop the hold: held=%v screen=%v", h.m.board.held, h.m.screen)
	}
	if n := h.srv.CallCount(http.MethodPut, "/boards/:id/items/:item_id"); n != 0 {
		t.Fatalf("expected no update, got %d", n)
	}
}

func TestFailedMoveShowsError(t *testing.T) {
	h := newHarness(t, true, "b")
	h.openBoard()
	h.srv.Fail(http.MethodPut, "/boards/:id/items/:item_id", http.StatusInternalServerError, "boom", 1)

	h.press(space)
	h.press(runes("l"))
	h.press(space)

	if !h.m.statusErr || !strings.Contains(h.m.status, "Could not move item: boom") {
		t.Fatalf("status = %q", h.m.status)
	}
	st, _ := h.m.board.snap.Stage("s1")
	if len(st.Items) != 2 {
		t.Fatalf("item should stay in its stage: %#v", st.Items)
	}
}

func TestEditorSavesOnce(t *testing.T) {
	h := newHarness(t, true, "b")
	h.openBoard()

	h.press(enter)
	if h.m.screen != screenEditor {
		t.Fatalf("expected editor, got %v", h.m.screen)
	}
	h.press(runes("a"))
	h.typeText("Chapter 1")
	h.press(enter)
	h.press(runes("a"))
	h.typeText("Chapter 2")
	h.press(enter)
	h.press(runes("x"))
	h.press(runes("s"))

	d := h.m.editor.ed.Draft()
	if len(d.Subtasks) != 2 || !d.Subtasks[0].Completed || d.Progress != 50 {
		t.Fatalf("draft = %#v", d)
	}
	if n := h.srv.CallCount(http.MethodPut, "/boards/:id/items/:item_id"); n != 0 {
		t.Fatalf("edits must stay local until save, got %d PUTs", n)
	}

	h.press(ctrlS)
	if n := h.srv.CallCount(http.MethodPut, "/boards/:id/items/:item_id"); n != 1 {
		t.Fatalf("expected one PUT, got %d", n)
	}
	if h.m.screen != screenBoard || h.m.editor != nil {
		t.Fatalf("save should return to the board")
	}
	it, _ := h.srv.Item("i1")
	if it.Progress != 50 || it.Status != model.StatusDone || len(it.Subtasks) != 2 {
		t.Fatalf("server copy = %#v", it)
	}
	got, _ := h.m.board.snap.FindItem("i1")
	if got.Progress != 50 {
		t.Fatalf("board snapshot not updated: %#v", got)
	}
}

func TestEditorDiscardKeepsServerCopy(t *testing.T) {
	h := newHarness(t, true, "b")
	h.openBoard()

	h.press(enter)
	h.press(runes("a"))
	h.typeText("Temp")
	h.press(enter)
	h.press(escape)

	if h.m.screen != screenBoard {
		t.Fatalf("expected board, got %v", h.m.screen)
	}
	if n := len(h.srv.Calls(http.MethodPut + " /boards/:id/items/:item_id")); n != 0 {
		t.Fatalf("discard must not save")
	}
	it, _ := h.srv.Item("i1")
	if len(it.Subtasks) != 0 {
		t.Fatalf("server copy changed: %#v", it)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, true, "b")
	h.openBoard()

	h.press(runes("d"))
	h.press(runes("n"))
	if _, ok := h.srv.Item("i1"); !ok {
		t.Fatalf("item deleted without confirmation")
	}

	h.press(runes("d"))
	h.press(runes("y"))
	if _, ok := h.srv.Item("i1"); ok {
		t.Fatalf("item should be deleted")
	}
	st, _ := h.m.board.snap.Stage("s1")
	if len(st.Items) != 1 || st.Items[0].ID != "i2" {
		t.Fatalf("snapshot = %#v", st.Items)
	}
}

func TestAddStageAndItem(t *testing.T) {
	h := newHarness(t, true, "b")
	h.openBoard()

	h.press(runes("A"))
	h.typeText("Mature")
	h.press(enter)
	if len(h.m.board.snap.Stages) != 3 {
		t.Fatalf("stages = %d", len(h.m.board.snap.Stages))
	}

	h.press(runes("a"))
	h.typeText("Serve")
	h.press(enter)
	st, _ := h.m.board.snap.Stage("s1")
	if len(st.Items) != 3 || st.Items[2].Content != "Serve" {
		t.Fatalf("items = %#v", st.Items)
	}
}

func TestExpiredSessionReturnsToLogin(t *testing.T) {
	h := newHarness(t, true, "b")
	h.srv.Fail(http.MethodGet, "/boards/:id", http.StatusUnauthorized, "Token has expired", 0)

	h.run(h.m.Init())

	if h.m.screen != screenLogin {
		t.Fatalf("expected login screen, got %v", h.m.screen)
	}
	if !strings.Contains(h.m.status, "not logged in") {
		t.Fatalf("status = %q", h.m.status)
	}
}

func TestMatchesScreenLinks(t *testing.T) {
	h := newHarness(t, true, "")
	h.run(h.m.Init())

	h.press(runes("M"))
	if h.m.screen != screenMatches || len(h.m.matchState.Suggestions) != 1 {
		t.Fatalf("matches not loaded: screen=%v state=%#v", h.m.screen, h.m.matchState)
	}
	if !strings.Contains(h.m.View(), "Naomi") {
		t.Fatalf("view should list Naomi:\n%s", h.m.View())
	}

	h.press(runes("l"))
	if h.m.status != "Linked with Naomi." {
		t.Fatalf("status = %q", h.m.status)
	}
	if n := h.srv.CallCount(http.MethodPost, "/users/discipleship"); n != 1 {
		t.Fatalf("expected one link call, got %d", n)
	}

	h.press(escape)
	if h.m.screen != screenBoards {
		t.Fatalf("esc should return to boards, got %v", h.m.screen)
	}
}

func TestEmptyMatchesShowMessage(t *testing.T) {
	h := newHarness(t, true, "")
	h.srv.Fail(http.MethodGet, "/users/suggested-matches", http.StatusInternalServerError, "boom", 0)

	h.press(runes("M"))
	if !h.m.matchState.Empty {
		t.Fatalf("expected empty state")
	}
	if !strings.Contains(h.m.View(), "No matches found") {
		t.Fatalf("view:\n%s", h.m.View())
	}
}
