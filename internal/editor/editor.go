// Package editor is the working copy of one item while it is open for editing. Nothing is
// visible outside the editor until Save succeeds.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"journey-cli/internal/logging"
	"journey-cli/internal/model"
)

var (
	ErrClosed   = errors.New("editor closed")
	ErrTooLarge = errors.New("attachment exceeds upload limit")
)

// Saver persists the edited record and returns it as it is now held by the board.
type Saver interface {
	UpdateItem(ctx context.Context, it model.Item) (model.Item, error)
}

type Uploader interface {
	UploadFile(ctx context.Context, itemID, name string, r io.Reader) (model.FileRef, error)
}

// Upload is a file to attach to a new activity.
type Upload struct {
	Name   string
	Reader io.Reader
}

// OpenUpload opens path for attaching; the caller closes the returned file.
func OpenUpload(path string) (*Upload, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	return &Upload{Name: filepath.Base(path), Reader: f}, f, nil
}

type Option func(*Editor)

// WithClock sets the source of activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// WithMaxUpload caps attachment size; 0 disables the cap.
func WithMaxUpload(n int64) Option {
	return func(e *Editor) { e.maxUpload = n }
}

type Editor struct {
	saver     Saver
	uploader  Uploader
	logger    *log.Logger
	now       func() time.Time
	maxUpload int64

	mu     sync.Mutex
	orig   model.Item
	draft  model.Item
	closed bool
}

func New(it model.Item, saver Saver, uploader Uploader, logger *log.Logger, opts ...Option) *Editor {
	draft := it.Clone()
	draft.Normalize()
	e := &Editor{
		saver:    saver,
		uploader: uploader,
		logger:   logging.OrDiscard(logger),
		now:      time.Now,
		orig:     it.Clone(),
		draft:    draft,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Draft returns a copy of the unsaved record.
func (e *Editor) Draft() model.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Discard closes the editor without saving.
func (e *Editor) Discard() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

func (e *Editor) edit(fn func(d *model.Item) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if err := fn(&e.draft); err != nil {
		return err
	}
	e.draft.Progress = model.Progress(e.draft.Subtasks)
	return nil
}

func (e *Editor) SetDescription(s string) error {
	return e.edit(func(d *model.Item) error {
		d.Description = s
		return nil
	})
}

func (e *Editor) SetStatus(st model.Status) error {
	if !st.Valid() {
		return fmt.Errorf("%w: unknown status %q", model.ErrInvalid, st)
	}
	return e.edit(func(d *model.Item) error {
		d.Status = st
		return nil
	})
}

// AddSubtask appends an open subtask. Blank text is ignored.
func (e *Editor) AddSubtask(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return e.edit(func(d *model.Item) error {
		d.Subtasks = append(d.Subtasks, model.Subtask{Text: text})
		return nil
	})
}

func (e *Editor) ToggleSubtask(i int) error {
	return e.edit(func(d *model.Item) error {
		if i < 0 || i >= len(d.Subtasks) {
			return fmt.Errorf("subtask %d out of range (have %d)", i, len(d.Subtasks))
		}
		d.Subtasks[i].Completed = !d.Subtasks[i].Completed
		return nil
	})
}

func (e *Editor) RemoveSubtask(i int) error {
	return e.edit(func(d *model.Item) error {
		if i < 0 || i >= len(d.Subtasks) {
			return fmt.Errorf("subtask %d out of range (have %d)", i, len(d.Subtasks))
		}
		d.Subtasks = append(d.Subtasks[:i:i], d.Subtasks[i+1:]...)
		return nil
	})
}

// AddActivity appends a log entry. With an attachment the file is uploaded first; if the
// upload fails nothing is appended, note text included.
func (e *Editor) AddActivity(ctx context.Context, text string, up *Upload) error {
	text = strings.TrimSpace(text)
	if text == "" && up == nil {
		return nil
	}
	if e.Closed() {
		return ErrClosed
	}
	var ref *model.FileRef
	if up != nil {
		r, err := e.upload(ctx, up)
		if err != nil {
			e.logger.WithFields(log.Fields{
				"op":      "activity.upload",
				"item_id": e.orig.ID,
				"file":    up.Name,
			}).WithError(err).Warn("attachment upload failed; activity dropped")
			return err
		}
		ref = &r
	}
	return e.edit(func(d *model.Item) error {
		d.Activities = append(d.Activities, model.Activity{
			Text:      text,
			Timestamp: model.NewTimestamp(e.now()),
			File:      ref,
		})
		return nil
	})
}

func (e *Editor) upload(ctx context.Context, up *Upload) (model.FileRef, error) {
	if e.uploader == nil {
		return model.FileRef{}, errors.New("attachments are not available")
	}
	r := up.Reader
	if e.maxUpload > 0 {
		r = &capped{r: up.Reader, left: e.maxUpload}
	}
	return e.uploader.UploadFile(ctx, e.orig.ID, up.Name, r)
}

type capped struct {
	r    io.Reader
	left int64
}

func (c *capped) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// Save hands the full record to the saver. On success the editor closes and the stored
// record is returned; on failure it stays open with the unsaved state.
func (e *Editor) Save(ctx context.Context) (model.Item, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return model.Item{}, ErrClosed
	}
	out := e.draft.Clone()
	e.mu.Unlock()

	out.ID = e.orig.ID
	out.StageID = e.orig.StageID
	out.Content = e.orig.Content
	out.Progress = model.Progress(out.Subtasks)

	saved, err := e.saver.UpdateItem(ctx, out)
	if err != nil {
		e.logger.WithFields(log.Fields{"op": "item.save", "item_id": out.ID, "stage_id": out.StageID}).
			WithError(err).Warn("save failed; editor stays open")
		return model.Item{}, err
	}
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return saved, nil
}
