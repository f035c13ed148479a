package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"journey-cli/internal/model"
	"journey-cli/internal/remotetest"
)

var alice = model.User{
	ID:        "user_1",
	Name:      "Alice",
	Email:     "alice@example.com",
	Role:      model.RoleDiscipler,
	Age:       34,
	Location:  "Austin",
	Interests: model.StringList{"prayer", "hiking"},
}

func loggedIn(t *testing.T) (*remotetest.Server, *Client) {
	t.Helper()
	srv := remotetest.New(t)
	srv.AddUser(alice, "pw")
	c := New(srv.URL, 5*time.Second, nil, nil)
	res, err := c.Login(context.Background(), alice.Email, "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return srv, c.WithTokens(StaticToken(res.AccessToken))
}

func TestLoginDecodesStoredInterests(t *testing.T) {
	srv := remotetest.New(t)
	srv.AddUser(alice, "pw")
	c := New(srv.URL, 0, nil, nil)

	res, err := c.Login(context.Background(), alice.Email, "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken == "" || res.TokenType != "bearer" {
		t.Fatalf("unexpected token: %+v", res)
	}
	if res.User.ID != alice.ID || len(res.User.Interests) != 2 || res.User.Interests[1] != "hiking" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
}

func TestLoginFailureCarriesDetail(t *testing.T) {
	srv := remotetest.New(t)
	srv.AddUser(alice, "pw")
	c := New(srv.URL, 0, nil, nil)

	_, err := c.Login(context.Background(), alice.Email, "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := DetailOf(err); got != "Invalid credentials" {
		t.Fatalf("detail: got %q", got)
	}
}

func TestSignupValidationDetail(t *testing.T) {
	srv := remotetest.New(t)
	c := New(srv.URL, 0, nil, nil)

	_, err := c.Signup(context.Background(), model.NewUser{
		ID: "user_2", Name: "Bob", Email: "bob@example.com", Password: "pw", Role: "pastor",
	})
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if se.Message() != "role must be Discipler or Disciple" {
		t.Fatalf("detail: got %q", se.Message())
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("422 must not match ErrUnauthorized")
	}
}

func TestBoardLifecycle(t *testing.T) {
	srv, c := loggedIn(t)
	ctx := context.Background()

	id, err := c.CreateBoard(ctx, "Growth Plan", alice.ID)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	if id != "growth-plan" {
		t.Fatalf("board id: got %q", id)
	}
	boards, err := c.ListBoards(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(boards) != 1 || boards[0].StageCount != 1 || boards[0].ItemCount != 1 {
		t.Fatalf("unexpected boards: %+v", boards)
	}

	st, err := c.CreateStage(ctx, NewStage{ID: "week-one", Title: "Week One", BoardID: id})
	if err != nil {
		t.Fatalf("create stage: %v", err)
	}
	if st.ID != "week-one_growth-plan" {
		t.Fatalf("stage id: got %q", st.ID)
	}
	if err := c.CreateItem(ctx, id, NewItem{ID: "item_a", Content: "Read John", StageID: st.ID}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	stages, err := c.GetBoard(ctx, id)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	var week model.Stage
	for _, s := range stages {
		if s.ID == st.ID {
			week = s
		}
	}
	if week.Position == nil || *week.Position != 2 || week.CreatedAt == nil || week.CreatedAt.IsZero() {
		t.Fatalf("stage metadata not decoded: %+v", week)
	}
	if len(week.Items) != 1 || week.Items[0].Status != model.StatusInProgress {
		t.Fatalf("unexpected items: %+v", week.Items)
	}

	it := week.Items[0]
	it.Subtasks = []model.Subtask{{Text: "a", Completed: true}, {Text: "b"}, {Text: "c"}}
	it.Progress = 99
	if err := c.UpdateItem(ctx, id, it); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := srv.Item("item_a")
	if stored.Progress != 33 {
		t.Fatalf("progress sent: got %d want 33", stored.Progress)
	}

	if err := c.DeleteItem(ctx, id, "item_a"); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if err := c.DeleteStage(ctx, id, st.ID); err != nil {
		t.Fatalf("delete stage: %v", err)
	}
	if got := len(srv.Stages(id)); got != 1 {
		t.Fatalf("stages left: %d", got)
	}
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	srv := remotetest.New(t)
	c := New(srv.URL, 0, nil, nil)
	_, err := c.ListBoards(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := New(ts.URL+"/", 0, StaticToken(" tok "), nil)
	if _, err := c.ListBoards(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got.Get("Authorization") != "Bearer tok" {
		t.Fatalf("authorization: %q", got.Get("Authorization"))
	}
	if got.Get("X-Request-ID") == "" {
		t.Fatalf("missing request id")
	}
}

func TestMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
		call func(*Client) error
	}{
		{"not json", `<html>`, func(c *Client) error { _, err := c.ListBoards(context.Background()); return err }},
		{"board without id", `[{"title":"x"}]`, func(c *Client) error { _, err := c.ListBoards(context.Background()); return err }},
		{"item without id", `{"stages":{"s1":{"title":"S","items":[{"content":"x"}]}}}`, func(c *Client) error {
			_, err := c.GetBoard(context.Background(), "b")
			return err
		}},
		{"unknown status", `{"stages":{"s1":{"title":"S","items":[{"id":"i","status":"Paused"}]}}}`, func(c *Client) error {
			_, err := c.GetBoard(context.Background(), "b")
			return err
		}},
		{"login without token", `{"user":{"id":"u"}}`, func(c *Client) error {
			_, err := c.Login(context.Background(), "a", "b")
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()
			err := tc.call(New(ts.URL, 0, StaticToken("t"), nil))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestGetBoardFillsIdentifiersAndProgress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stages":{"s1":{"title":"S","position":1,"created_at":"2024-05-01T10:00:00",
			"items":[{"id":"i1","content":"x","progress":80,"subtasks":[{"text":"a","completed":true},{"text":"b","completed":false}]}]}}}`))
	}))
	defer ts.Close()

	stages, err := New(ts.URL, 0, StaticToken("t"), nil).GetBoard(context.Background(), "b1")
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	s := stages[0]
	if s.ID != "s1" || s.BoardID != "b1" {
		t.Fatalf("identifiers: %+v", s)
	}
	it := s.Items[0]
	if it.StageID != "s1" || it.Progress != 50 || it.Status != model.StatusInProgress {
		t.Fatalf("item not normalized: %+v", it)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !s.CreatedAt.Equal(want) {
		t.Fatalf("created_at: got %v", s.CreatedAt.Time)
	}
}

func TestUploadFile(t *testing.T) {
	srv, c := loggedIn(t)
	ref, err := c.UploadFile(context.Background(), "item_a", "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ref.Name != "notes.txt" || !strings.HasSuffix(ref.URL, "/files/item_a/notes.txt") {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	b, ok := srv.Upload("/files/item_a/notes.txt")
	if !ok || string(b) != "hello" {
		t.Fatalf("stored upload: %q %v", b, ok)
	}
}

func TestUploadFailure(t *testing.T) {
	srv, c := loggedIn(t)
	srv.Fail(http.MethodPost, "/items/:id/files", http.StatusInternalServerError, "disk full", 1)
	_, err := c.UploadFile(context.Background(), "item_a", "notes.txt", strings.NewReader("hello"))
	if DetailOf(err) != "disk full" {
		t.Fatalf("expected disk full, got %v", err)
	}
}

func TestUsersEndpoints(t *testing.T) {
	srv, c := loggedIn(t)
	bob := model.User{ID: "user_2", Name: "Bob", Email: "bob@example.com", Role: model.RoleDisciple, Age: 30, Location: "austin", Interests: model.StringList{"prayer"}}
	carol := model.User{ID: "user_3", Name: "Carol", Email: "carol@example.com", Role: model.RoleDisciple, Age: 60, Location: "Lima"}
	srv.AddUser(bob, "pw")
	srv.AddUser(carol, "pw")
	ctx := context.Background()

	matches, err := c.SuggestedMatches(ctx)
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != bob.ID || matches[0].MatchScore != 3 {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if matches[1].CommonInterests == nil {
		t.Fatalf("common interests should be empty, not nil")
	}

	opp, err := c.OppositeRoleUsers(ctx)
	if err != nil || len(opp) != 2 {
		t.Fatalf("opposite role: %v %+v", err, opp)
	}

	none, err := c.Discipler(ctx, bob.ID)
	if err != nil || none != nil {
		t.Fatalf("expected no discipler, got %+v %v", none, err)
	}
	if err := c.CreateDiscipleship(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	d, err := c.Discipler(ctx, bob.ID)
	if err != nil || d == nil || d.ID != alice.ID {
		t.Fatalf("discipler: %+v %v", d, err)
	}
	ds, err := c.Disciples(ctx, alice.ID)
	if err != nil || len(ds) != 1 || ds[0].ID != bob.ID {
		t.Fatalf("disciples: %+v %v", ds, err)
	}
	u, err := c.GetUser(ctx, carol.ID)
	if err != nil || u.Name != "Carol" {
		t.Fatalf("get user: %+v %v", u, err)
	}

	srv.SeedBoard("prayer-walk", "Prayer Walk", carol.ID, model.Stage{ID: "s1", Title: "Start", Items: []model.Item{{ID: "i1", Content: "Walk"}}})
	owned, err := c.UserBoards(ctx, carol.ID)
	if err != nil || len(owned) != 1 || owned[0].ID != "prayer-walk" || owned[0].ItemCount != 1 {
		t.Fatalf("user boards: %+v %v", owned, err)
	}
	empty, err := c.UserBoards(ctx, bob.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("bob owns no boards: %+v %v", empty, err)
	}
}

func TestUserRoutes(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		if strings.HasSuffix(r.URL.Path, "/boards") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u 1","name":"Ruth","email":"ruth@example.com","role":"Disciple"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, 0, StaticToken("tok"), nil)
	ctx := context.Background()
	if _, err := c.GetUser(ctx, "u 1"); err != nil {
		t.Fatalf("get user: %v", err)
	}
	if _, err := c.UserBoards(ctx, "u 1"); err != nil {
		t.Fatalf("user boards: %v", err)
	}
	want := []string{"/users/users/u%201", "/users/u%201/boards"}
	if strings.Join(paths, " ") != strings.Join(want, " ") {
		t.Fatalf("requested %v, want %v", paths, want)
	}
}

func TestParseDetail(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"detail":"Board not found"}`, "Board not found"},
		{`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, "value is not a valid email address"},
		{`{"message":"boom"}`, "boom"},
		{`Internal Server Error`, "Internal Server Error"},
		{``, ""},
	}
	for _, tc := range cases {
		if got := parseDetail([]byte(tc.raw)); got != tc.want {
			t.Fatalf("parseDetail(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestRequestSpansAndLogs(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	}()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	srv := remotetest.New(t)
	c := New(srv.URL, 0, StaticToken("garbage"), logger)
	_, _ = c.GetBoard(context.Background(), "b1")

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "GET /boards/{id}" {
		t.Fatalf("span name: %q", spans[0].Name)
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs["http.response.status_code"].AsInt64() != http.StatusUnauthorized {
		t.Fatalf("status attribute: %v", attrs["http.response.status_code"])
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "api.request" || entry.Data["route"] != "/boards/{id}" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}
