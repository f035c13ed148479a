package tui

import (
	"journey-cli/internal/board"
	"journey-cli/internal/matches"
	"journey-cli/internal/model"
)

type loginDoneMsg struct {
	user model.User
	err  error
}

type signupDoneMsg struct {
	user model.User
	err  error
}

type logoutDoneMsg struct{}

type boardsLoadedMsg struct {
	boards []model.BoardSummary
	err    error
}

type boardCreatedMsg struct {
	id  string
	err error
}

type boardOpenedMsg struct {
	view *board.View
	err  error
}

// boardOpMsg reports a finished board mutation; the model re-reads the view's snapshot.
type boardOpMsg struct {
	op   string
	view *board.View
	err  error
}

type itemSavedMsg struct {
	item model.Item
	err  error
}

type activityAddedMsg struct {
	err error
}

type matchesLoadedMsg struct {
	state matches.State
	err   error
}

type oppositeLoadedMsg struct {
	users []model.User
	err   error
}

type linkDoneMsg struct {
	name string
	err  error
}
