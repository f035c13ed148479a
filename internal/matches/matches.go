// Package matches lists suggested people of the opposite role and manages discipleship links.
package matches

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"journey-cli/internal/api"
	"journey-cli/internal/logging"
	"journey-cli/internal/model"
	"journey-cli/internal/session"
)

// EmptyMessage is shown when there is nothing to suggest, including after a failed fetch.
const EmptyMessage = "No matches found. Try updating your interests or location!"

type Remote interface {
	SuggestedMatches(ctx context.Context) ([]model.MatchSuggestion, error)
	OppositeRoleUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	UserBoards(ctx context.Context, userID string) ([]model.BoardSummary, error)
	CreateDiscipleship(ctx context.Context, disciplerID, discipleID string) error
	Disciples(ctx context.Context, disciplerID string) ([]model.User, error)
	Discipler(ctx context.Context, discipleID string) (*model.User, error)
}

type Credentials interface {
	Token() string
}

// State is what the suggestion screen renders.
type State struct {
	Suggestions []model.MatchSuggestion
	Loaded      bool
	Empty       bool
}

type View struct {
	remote Remote
	creds  Credentials
	logger *log.Logger

	mu    sync.Mutex
	state State
}

func New(remote Remote, creds Credentials, logger *log.Logger) *View {
	return &View{remote: remote, creds: creds, logger: logging.OrDiscard(logger)}
}

func (v *View) authorized() bool {
	return v.creds != nil && strings.TrimSpace(v.creds.Token()) != ""
}

func (v *View) fail(op string, err error, fields log.Fields) error {
	if api.IsUnauthorized(err) {
		return session.ErrLoginRequired
	}
	f := log.Fields{"op": op, "detail": api.DetailOf(err)}
	for k, val := range fields {
		f[k] = val
	}
	v.logger.WithFields(f).WithError(err).Warn("remote call failed")
	return err
}

// Suggestions fetches the ranked list, keeping server order. Any failure other than an
// expired credential degrades to the empty state and is only logged.
func (v *View) Suggestions(ctx context.Context) (State, error) {
	if !v.authorized() {
		return State{}, session.ErrLoginRequired
	}
	list, err := v.remote.SuggestedMatches(ctx)
	if err != nil {
		if ferr := v.fail("matches.suggested", err, nil); errors.Is(ferr, session.ErrLoginRequired) {
			return State{}, ferr
		}
		list = nil
	}
	st := State{Suggestions: list, Loaded: true, Empty: len(list) == 0}
	if st.Suggestions == nil {
		st.Suggestions = []model.MatchSuggestion{}
	}
	v.mu.Lock()
	v.state = st
	v.mu.Unlock()
	return st, nil
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View) OppositeRole(ctx context.Context) ([]model.User, error) {
	if !v.authorized() {
		return nil, session.ErrLoginRequired
	}
	users, err := v.remote.OppositeRoleUsers(ctx)
	if err != nil {
		return nil, v.fail("users.opposite_role", err, nil)
	}
	return users, nil
}

func (v *View) User(ctx context.Context, id string) (model.User, error) {
	u, err := v.remote.GetUser(ctx, id)
	if err != nil {
		return model.User{}, v.fail("users.get", err, log.Fields{"user_id": id})
	}
	return u, nil
}

// Boards lists the boards another user owns.
func (v *View) Boards(ctx context.Context, userID string) ([]model.BoardSummary, error) {
	boards, err := v.remote.UserBoards(ctx, userID)
	if err != nil {
		return nil, v.fail("users.boards", err, log.Fields{"user_id": userID})
	}
	return boards, nil
}

// Link records that disciplerID disciples discipleID.
func (v *View) Link(ctx context.Context, disciplerID, discipleID string) error {
	disciplerID, discipleID = strings.TrimSpace(disciplerID), strings.TrimSpace(discipleID)
	if disciplerID == "" || discipleID == "" {
		return errMissingParty
	}
	if disciplerID == discipleID {
		return errSelfLink
	}
	if err := v.remote.CreateDiscipleship(ctx, disciplerID, discipleID); err != nil {
		return v.fail("discipleship.create", err, log.Fields{"discipler_id": disciplerID, "disciple_id": discipleID})
	}
	return nil
}

func (v *View) Disciples(ctx context.Context, disciplerID string) ([]model.User, error) {
	users, err := v.remote.Disciples(ctx, disciplerID)
	if err != nil {
		return nil, v.fail("discipleship.disciples", err, log.Fields{"discipler_id": disciplerID})
	}
	return users, nil
}

// Discipler returns nil when discipleID has none.
func (v *View) Discipler(ctx context.Context, discipleID string) (*model.User, error) {
	u, err := v.remote.Discipler(ctx, discipleID)
	if err != nil {
		return nil, v.fail("discipleship.discipler", err, log.Fields{"disciple_id": discipleID})
	}
	return u, nil
}
