// Package board holds the client-side state of the board list and of one open board. State
// is published as immutable snapshots; remote failures never corrupt local state.
package board

import (
	"context"
	"errors"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"journey-cli/internal/api"
	"journey-cli/internal/model"
	"journey-cli/internal/session"
)

// ErrClosed is returned when a result arrives for a view that has already been torn down.
var ErrClosed = errors.New("board view closed")

// Remote is the slice of the remote API the board views use.
type Remote interface {
	ListBoards(ctx context.Context) ([]model.BoardSummary, error)
	CreateBoard(ctx context.Context, title, userID string) (string, error)
	GetBoard(ctx context.Context, boardID string) ([]model.Stage, error)
	CreateStage(ctx context.Context, s api.NewStage) (model.Stage, error)
	DeleteStage(ctx context.Context, boardID, stageID string) error
	CreateItem(ctx context.Context, boardID string, it api.NewItem) error
	UpdateItem(ctx context.Context, boardID string, it model.Item) error
	DeleteItem(ctx context.Context, boardID, itemID string) error
}

// Credentials is satisfied by *session.Session.
type Credentials interface {
	Token() string
	User() (model.User, bool)
}

func hasCredential(c Credentials) bool {
	if c == nil || strings.TrimSpace(c.Token()) == "" {
		return false
	}
	_, ok := c.User()
	return ok
}

// remoteErr maps 401 to session.ErrLoginRequired and logs everything else.
func remoteErr(logger *log.Logger, op string, err error, fields log.Fields) error {
	if api.IsUnauthorized(err) {
		return session.ErrLoginRequired
	}
	f := log.Fields{"op": op, "detail": api.DetailOf(err)}
	for k, v := range fields {
		f[k] = v
	}
	logger.WithFields(f).WithError(err).Warn("remote call failed")
	return err
}

// Slug turns a stage title into its identifier: lowercase, whitespace runs become "-".
func Slug(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

// SortStages orders stages for display: by position when both have one and they differ,
// otherwise by creation time. The sort is stable.
func SortStages(stages []model.Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		a, b := stages[i], stages[j]
		if a.Position != nil && b.Position != nil && *a.Position != *b.Position {
			return *a.Position < *b.Position
		}
		if a.CreatedAt != nil && b.CreatedAt != nil {
			return a.CreatedAt.Before(b.CreatedAt.Time)
		}
		return false
	})
}
