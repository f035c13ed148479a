package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"journey-cli/internal/board"
	"journey-cli/internal/editor"
	"journey-cli/internal/matches"
	"journey-cli/internal/session"
)

// Remote is everything the interactive surface asks of the remote store.
type Remote interface {
	board.Remote
	matches.Remote
	editor.Uploader
}

type Options struct {
	Session *session.Session
	Remote  Remote
	Logger  *log.Logger
	// BoardID opens that board directly instead of the board list.
	BoardID        string
	MarkdownStyle  string
	UploadMaxBytes int64
}

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.MarkdownStyle)
	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(appModel); ok {
		fm.closeBoard()
	}
	return err
}
