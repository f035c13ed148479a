// Package remotetest is an in-memory stand-in for the remote store, served over HTTP with the
// same routes, payload shapes and error bodies, plus hooks to inject failures and hold requests.
package remotetest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"journey-cli/internal/model"
)

// Secret signs the HS256 tokens handed out by /auth/login.
var Secret = []byte("remotetest-secret")

type account struct {
	user     model.User
	password string
}

type boardRow struct {
	id      string
	title   string
	userID  string
	created time.Time
}

type stageRow struct {
	id       string
	title    string
	boardID  string
	position int
	created  time.Time
}

type itemRow struct {
	item model.Item
	seq  int
}

type fault struct {
	status int
	detail string
	times  int // <=0 means every request
}

// Call records one request the server accepted for routing.
type Call struct {
	Method string
	Route  string
	Path   string
}

type Server struct {
	URL string

	srv *httptest.Server
	e   *echo.Echo

	mu       sync.Mutex
	accounts map[string]*account // by email
	boards   map[string]*boardRow
	stages   map[string]*stageRow
	items    map[string]*itemRow
	links    []model.Discipleship
	uploads  map[string][]byte
	faults   map[string]*fault
	gates    map[string]chan struct{}
	calls    []Call
	seq      int
	now      func() time.Time
	tokenTTL time.Duration
}

// New starts a server and stops it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		accounts: map[string]*account{},
		boards:   map[string]*boardRow{},
		stages:   map[string]*stageRow{},
		items:    map[string]*itemRow{},
		uploads:  map[string][]byte{},
		faults:   map[string]*fault{},
		gates:    map[string]chan struct{}{},
		now:      time.Now,
		tokenTTL: 30 * time.Minute,
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(s.record, s.inject)
	register(e, s)
	s.e = e
	s.srv = httptest.NewServer(e)
	s.URL = s.srv.URL
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) Close() {
	s.mu.Lock()
	for k, ch := range s.gates {
		close(ch)
		delete(s.gates, k)
	}
	s.mu.Unlock()
	s.srv.Close()
}

// SetTokenTTL changes the lifetime of tokens issued by subsequent logins.
func (s *Server) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = d
}

func key(method, route string) string { return method + " " + route }

// Fail makes requests to route (echo syntax, e.g. "/boards/:id") answer status with detail.
// times <= 0 fails every request until Reset.
func (s *Server) Fail(method, route string, status int, detail string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[key(method, route)] = &fault{status: status, detail: detail, times: times}
}

// Hold blocks requests to route until the returned release func is called.
func (s *Server) Hold(method, route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[key(method, route)] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gates[key(method, route)] == ch {
				delete(s.gates, key(method, route))
				close(ch)
			}
		})
	}
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]*fault{}
	s.calls = nil
}

// Calls returns the requests seen so far, optionally filtered by "METHOD route".
func (s *Server) Calls(filter ...string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(filter) == 0 {
		return append([]Call(nil), s.calls...)
	}
	want := map[string]bool{}
	for _, f := range filter {
		want[f] = true
	}
	var out []Call
	for _, c := range s.calls {
		if want[key(c.Method, c.Route)] {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) CallCount(method, route string) int {
	return len(s.Calls(key(method, route)))
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: c.Request().Method, Route: c.Path(), Path: c.Request().URL.Path})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) inject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		k := key(c.Request().Method, c.Path())
		s.mu.Lock()
		gate := s.gates[k]
		s.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		s.mu.Lock()
		f := s.faults[k]
		if f != nil && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(s.faults, k)
			}
		}
		s.mu.Unlock()
		if f != nil {
			return c.JSON(f.status, map[string]any{"detail": f.detail})
		}
		return next(c)
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	var detail any = err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		detail = he.Message
	}
	_ = c.JSON(status, map[string]any{"detail": detail})
}

func detailErr(status int, detail string) error {
	return echo.NewHTTPError(status, detail)
}

// validationErr mirrors a 422 body: {"detail": [{"loc": [...], "msg": "..."}]}.
func validationErr(field, msg string) error {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, []map[string]any{
		{"loc": []string{"body", field}, "msg": msg, "type": "value_error"},
	})
}

// AddUser seeds an account directly.
func (s *Server) AddUser(u model.User, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(u.Email)] = &account{user: u, password: password}
}

// Token issues a signed token for the user with the given id.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == userID {
			tok, _ := s.issueLocked(a.user)
			return tok
		}
	}
	return ""
}

func (s *Server) issueLocked(u model.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":     u.Email,
		"user_id": u.ID,
		"exp":     s.now().Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Secret)
}

func (s *Server) userFromToken(raw string) (model.User, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return Secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return model.User{}, detailErr(http.StatusUnauthorized, "Token has expired")
		}
		return model.User{}, detailErr(http.StatusUnauthorized, "Could not validate credentials")
	}
	claims, _ := tok.Claims.(jwt.MapClaims)
	id, _ := claims["user_id"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, nil
		}
	}
	return model.User{}, detailErr(http.StatusUnauthorized, "User not found")
}

const userKey = "remotetest.user"

func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return detailErr(http.StatusUnauthorized, "Not authenticated")
		}
		u, err := s.userFromToken(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		c.Set(userKey, u)
		return next(c)
	}
}

func currentUser(c echo.Context) model.User {
	u, _ := c.Get(userKey).(model.User)
	return u
}

// Stages returns the stored stages of a board by position, for assertions.
func (s *Server) Stages(boardID string) []model.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stagesLocked(boardID)
}

// Item returns the stored item, for assertions.
func (s *Server) Item(id string) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.items[id]
	if !ok {
		return model.Item{}, false
	}
	return row.item.Clone(), true
}

// Upload returns the bytes stored under a file url path.
func (s *Server) Upload(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.uploads[path]
	return b, ok
}

func (s *Server) stagesLocked(boardID string) []model.Stage {
	var rows []*stageRow
	for _, st := range s.stages {
		if st.boardID == boardID {
			rows = append(rows, st)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].position != rows[j].position {
			return rows[i].position < rows[j].position
		}
		return rows[i].created.Before(rows[j].created)
	})
	var items []*itemRow
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })

	out := make([]model.Stage, 0, len(rows))
	for _, r := range rows {
		pos := r.position
		created := model.NewTimestamp(r.created)
		st := model.Stage{ID: r.id, Title: r.title, BoardID: r.boardID, Position: &pos, CreatedAt: &created, Items: []model.Item{}}
		for _, it := range items {
			if it.item.StageID == r.id {
				st.Items = append(st.Items, it.item.Clone())
			}
		}
		out = append(out, st)
	}
	return out
}

func (s *Server) nextSeq() int {
	s.seq++
	return s.seq
}

// SeedBoard stores a board with the given stages (in position order) owned by userID.
func (s *Server) SeedBoard(boardID, title, userID string, stages ...model.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.boards[boardID] = &boardRow{id: boardID, title: title, userID: userID, created: now}
	for i, st := range stages {
		pos := i + 1
		if st.Position != nil {
			pos = *st.Position
		}
		created := now.Add(time.Duration(i) * time.Millisecond)
		if st.CreatedAt != nil {
			created = st.CreatedAt.Time
		}
		s.stages[st.ID] = &stageRow{id: st.ID, title: st.Title, boardID: boardID, position: pos, created: created}
		for _, it := range st.Items {
			it.StageID = st.ID
			it.Normalize()
			s.items[it.ID] = &itemRow{item: it.Clone(), seq: s.nextSeq()}
		}
	}
}
