package board

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"journey-cli/internal/api"
	"journey-cli/internal/logging"
	"journey-cli/internal/model"
	"journey-cli/internal/observe"
	"journey-cli/internal/session"
)

// Snapshot is one immutable state of an open board. Every published snapshot owns its
// slices; callers may read it freely but must not mutate it.
type Snapshot struct {
	BoardID string
	Stages  []model.Stage
	Loaded  bool
	// Version increases with every published change.
	Version int
}

func (s Snapshot) Stage(id string) (model.Stage, bool) {
	for _, st := range s.Stages {
		if st.ID == id {
			return st, true
		}
	}
	return model.Stage{}, false
}

// FindItem locates an item anywhere on the board.
func (s Snapshot) FindItem(itemID string) (model.Item, bool) {
	for _, st := range s.Stages {
		for _, it := range st.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return model.Item{}, false
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Stages = make([]model.Stage, len(s.Stages))
	for i, st := range s.Stages {
		out.Stages[i] = st.Clone()
	}
	return out
}

// DragPayload identifies the item being moved and where it was picked up.
type DragPayload struct {
	ItemID        string
	SourceStageID string
}

// View is the state machine of one open board.
type View struct {
	boardID string
	remote  Remote
	creds   Credentials
	logger  *log.Logger

	life   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	snap   Snapshot
	closed bool
	subs   observe.Subscribers[Snapshot]
}

func NewView(boardID string, remote Remote, creds Credentials, logger *log.Logger) *View {
	life, cancel := context.WithCancel(context.Background())
	return &View{
		boardID: boardID,
		remote:  remote,
		creds:   creds,
		logger:  logging.OrDiscard(logger),
		life:    life,
		cancel:  cancel,
		snap:    Snapshot{BoardID: boardID, Stages: []model.Stage{}},
	}
}

func (v *View) BoardID() string { return v.boardID }

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

func (v *View) Subscribe(fn func(Snapshot)) (cancel func()) {
	return v.subs.Add(fn)
}

// Close cancels in-flight requests; results that still arrive are discarded.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

// begin derives a request context that also ends when the view closes.
func (v *View) begin(ctx context.Context) (context.Context, func(), error) {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return nil, nil, ErrClosed
	}
	if !hasCredential(v.creds) {
		return nil, nil, session.ErrLoginRequired
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.life, cancel)
	return ctx, func() { stop(); cancel() }, nil
}

// apply builds the next snapshot from the latest one. It returns ErrClosed when the view
// was closed while the request was in flight.
func (v *View) apply(mutate func(*Snapshot) bool) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	next := v.snap.clone()
	if !mutate(&next) {
		v.mu.Unlock()
		return nil
	}
	next.Version = v.snap.Version + 1
	v.snap = next
	v.mu.Unlock()
	v.subs.Notify(next)
	return nil
}

func (v *View) fail(op string, err error, fields log.Fields) error {
	if v.life.Err() != nil {
		return ErrClosed
	}
	f := log.Fields{"board_id": v.boardID}
	for k, val := range fields {
		f[k] = val
	}
	return remoteErr(v.logger, op, err, f)
}

// Load fetches the board and fixes stage order for the lifetime of the view.
func (v *View) Load(ctx context.Context) error {
	ctx, done, err := v.begin(ctx)
	if err != nil {
		return err
	}
	defer done()
	stages, err := v.remote.GetBoard(ctx, v.boardID)
	if err != nil {
		return v.fail("board.load", err, nil)
	}
	SortStages(stages)
	return v.apply(func(s *Snapshot) bool {
		s.Stages = stages
		s.Loaded = true
		return true
	})
}

// CreateStage adds a stage and reloads the board. A blank title does nothing.
func (v *View) CreateStage(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	rctx, done, err := v.begin(ctx)
	if err != nil {
		return err
	}
	defer done()
	_, err = v.remote.CreateStage(rctx, api.NewStage{ID: Slug(title), Title: title, BoardID: v.boardID})
	if err != nil {
		return v.fail("stage.create", err, log.Fields{"title": title})
	}
	return v.Load(ctx)
}

// DeleteStage removes a stage and reloads the board once the server confirms.
func (v *View) DeleteStage(ctx context.Context, stageID string) error {
	rctx, done, err := v.begin(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := v.remote.DeleteStage(rctx, v.boardID, stageID); err != nil {
		return v.fail("stage.delete", err, log.Fields{"stage_id": stageID})
	}
	return v.Load(ctx)
}

// CreateItem adds an item to the end of a stage. A blank content does nothing.
func (v *View) CreateItem(ctx context.Context, stageID, content string) (model.Item, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Item{}, nil
	}
	ctx, done, err := v.begin(ctx)
	if err != nil {
		return model.Item{}, err
	}
	defer done()
	it := model.Item{ID: "item_" + uuid.NewString(), Content: content, StageID: stageID}
	it.Normalize()
	if err := v.remote.CreateItem(ctx, v.boardID, api.NewItem{ID: it.ID, Content: it.Content, StageID: stageID}); err != nil {
		return model.Item{}, v.fail("item.create", err, log.Fields{"stage_id": stageID})
	}
	err = v.apply(func(s *Snapshot) bool {
		for i := range s.Stages {
			if s.Stages[i].ID == stageID {
				s.Stages[i].Items = append(s.Stages[i].Items, it.Clone())
				return true
			}
		}
		return false
	})
	return it, err
}

// DeleteItem removes the item from stageID once the server confirms.
func (v *View) DeleteItem(ctx context.Context, stageID, itemID string) error {
	ctx, done, err := v.begin(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := v.remote.DeleteItem(ctx, v.boardID, itemID); err != nil {
		return v.fail("item.delete", err, log.Fields{"stage_id": stageID, "item_id": itemID})
	}
	return v.apply(func(s *Snapshot) bool {
		for i := range s.Stages {
			if s.Stages[i].ID != stageID {
				continue
			}
			items := s.Stages[i].Items
			for j := range items {
				if items[j].ID == itemID {
					s.Stages[i].Items = append(items[:j:j], items[j+1:]...)
					return true
				}
			}
		}
		return false
	})
}

// Drop moves an item to targetStageID. The full last-known record is sent with the new
// stage; local state changes only after the server accepts it.
func (v *View) Drop(ctx context.Context, p DragPayload, targetStageID string) error {
	if p.SourceStageID == targetStageID {
		return nil
	}
	src, ok := v.Snapshot().Stage(p.SourceStageID)
	if !ok {
		return nil
	}
	var moving model.Item
	found := false
	for _, it := range src.Items {
		if it.ID == p.ItemID {
			moving, found = it.Clone(), true
			break
		}
	}
	if !found {
		return nil
	}
	moving.StageID = targetStageID

	rctx, done, err := v.begin(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := v.remote.UpdateItem(rctx, v.boardID, moving); err != nil {
		return v.fail("item.move", err, log.Fields{
			"item_id":      p.ItemID,
			"stage_id":     p.SourceStageID,
			"target_stage": targetStageID,
		})
	}
	vanished := false
	err = v.apply(func(s *Snapshot) bool {
		target := -1
		for i := range s.Stages {
			if s.Stages[i].ID == targetStageID {
				target = i
			}
		}
		if target < 0 {
			vanished = true
			return false
		}
		removeEverywhere(s, p.ItemID)
		s.Stages[target].Items = append(s.Stages[target].Items, moving)
		return true
	})
	if err != nil || !vanished {
		return err
	}
	// The server already holds the new stage_id; only a fresh copy can show where the item went.
	v.logger.WithFields(log.Fields{"board_id": v.boardID, "item_id": p.ItemID, "stage_id": targetStageID}).
		Warn("move target vanished before the result arrived; reloading")
	return v.Load(ctx)
}

// UpdateItem saves the full record and replaces the local copy in place, moving it into
// it.StageID if it currently lives elsewhere. It returns the record as stored locally.
func (v *View) UpdateItem(ctx context.Context, it model.Item) (model.Item, error) {
	it = it.Clone()
	it.Normalize()
	ctx, done, err := v.begin(ctx)
	if err != nil {
		return model.Item{}, err
	}
	defer done()
	if err := v.remote.UpdateItem(ctx, v.boardID, it); err != nil {
		return model.Item{}, v.fail("item.update", err, log.Fields{"item_id": it.ID, "stage_id": it.StageID})
	}
	err = v.apply(func(s *Snapshot) bool {
		for i := range s.Stages {
			if s.Stages[i].ID != it.StageID {
				continue
			}
			for j := range s.Stages[i].Items {
				if s.Stages[i].Items[j].ID == it.ID {
					s.Stages[i].Items[j] = it.Clone()
					return true
				}
			}
			removeEverywhere(s, it.ID)
			s.Stages[i].Items = append(s.Stages[i].Items, it.Clone())
			return true
		}
		return false
	})
	return it, err
}

func removeEverywhere(s *Snapshot, itemID string) {
	for i := range s.Stages {
		items := s.Stages[i].Items[:0]
		for _, it := range s.Stages[i].Items {
			if it.ID != itemID {
				items = append(items, it)
			}
		}
		s.Stages[i].Items = items
	}
}
