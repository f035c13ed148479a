package board

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"journey-cli/internal/logging"
	"journey-cli/internal/model"
	"journey-cli/internal/observe"
	"journey-cli/internal/session"
)

// Collection is the signed-in user's board list.
type Collection struct {
	remote Remote
	creds  Credentials
	logger *log.Logger

	mu     sync.Mutex
	boards []model.BoardSummary
	subs   observe.Subscribers[[]model.BoardSummary]
}

func NewCollection(remote Remote, creds Credentials, logger *log.Logger) *Collection {
	return &Collection{remote: remote, creds: creds, logger: logging.OrDiscard(logger), boards: []model.BoardSummary{}}
}

// List fetches the boards. On failure the previous snapshot is kept.
func (c *Collection) List(ctx context.Context) ([]model.BoardSummary, error) {
	if !hasCredential(c.creds) {
		return nil, session.ErrLoginRequired
	}
	boards, err := c.remote.ListBoards(ctx)
	if err != nil {
		return nil, remoteErr(c.logger, "boards.list", err, nil)
	}
	c.mu.Lock()
	c.boards = append([]model.BoardSummary(nil), boards...)
	out := c.snapshotLocked()
	c.mu.Unlock()
	c.subs.Notify(out)
	return out, nil
}

// Create makes a board and re-fetches the list so counts come from the server. A blank
// title does nothing and returns an empty id.
func (c *Collection) Create(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil
	}
	if !hasCredential(c.creds) {
		return "", session.ErrLoginRequired
	}
	u, _ := c.creds.User()
	id, err := c.remote.CreateBoard(ctx, title, u.ID)
	if err != nil {
		return "", remoteErr(c.logger, "boards.create", err, log.Fields{"title": title})
	}
	if _, err := c.List(ctx); err != nil {
		return id, err
	}
	return id, nil
}

func (c *Collection) Snapshot() []model.BoardSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection) snapshotLocked() []model.BoardSummary {
	return append([]model.BoardSummary{}, c.boards...)
}

func (c *Collection) Subscribe(fn func([]model.BoardSummary)) (cancel func()) {
	return c.subs.Add(fn)
}
