package matches

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"journey-cli/internal/api"
	"journey-cli/internal/model"
	"journey-cli/internal/remotetest"
	"journey-cli/internal/session"
)

func setup(t *testing.T) (*remotetest.Server, *View, *test.Hook) {
	t.Helper()
	srv := remotetest.New(t)
	srv.AddUser(model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: model.RoleDisciple, Age: 25, Location: "Boston", Interests: model.StringList{"worship", "prayer"}}, "pw")
	srv.AddUser(model.User{ID: "u2", Name: "Ben", Email: "ben@example.com", Role: model.RoleDiscipler, Age: 27, Location: "boston", Interests: model.StringList{"prayer"}}, "pw")
	srv.AddUser(model.User{ID: "u3", Name: "Cal", Email: "cal@example.com", Role: model.RoleDiscipler, Age: 60, Location: "Quito", Interests: model.StringList{"worship", "prayer", "music"}}, "pw")
	tok := srv.Token("u1")
	logger, hook := test.NewNullLogger()
	client := api.New(srv.URL, 5*time.Second, api.StaticToken(tok), nil)
	return srv, New(client, api.StaticToken(tok), logger), hook
}

func TestSuggestionsKeepServerOrder(t *testing.T) {
	_, v, _ := setup(t)
	st, err := v.Suggestions(context.Background())
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if st.Empty || len(st.Suggestions) != 2 {
		t.Fatalf("unexpected state: %+v", st)
	}
	// Ben: 1 shared + age + location = 3; Cal: 2 shared = 2.
	if st.Suggestions[0].ID != "u2" || st.Suggestions[0].MatchScore != 3 || st.Suggestions[1].MatchScore != 2 {
		t.Fatalf("order: %+v", st.Suggestions)
	}
	if !st.Suggestions[0].SameLocation || !st.Suggestions[0].WithinAgeRange {
		t.Fatalf("flags: %+v", st.Suggestions[0])
	}
	if got := v.State(); len(got.Suggestions) != 2 {
		t.Fatalf("state not retained")
	}
}

func TestSuggestionsFailureShowsEmptyState(t *testing.T) {
	srv, v, hook := setup(t)
	srv.Fail(http.MethodGet, "/users/suggested-matches", http.StatusInternalServerError, "boom", 1)
	st, err := v.Suggestions(context.Background())
	if err != nil {
		t.Fatalf("failure should degrade, got %v", err)
	}
	if !st.Empty || !st.Loaded || len(st.Suggestions) != 0 {
		t.Fatalf("expected empty state, got %+v", st)
	}
	if e := hook.LastEntry(); e == nil || e.Data["op"] != "matches.suggested" {
		t.Fatalf("expected log entry, got %+v", e)
	}
}

func TestSuggestionsUnauthorized(t *testing.T) {
	srv, v, _ := setup(t)
	srv.Fail(http.MethodGet, "/users/suggested-matches", http.StatusUnauthorized, "Token has expired", 1)
	if _, err := v.Suggestions(context.Background()); !errors.Is(err, session.ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}
	none := New(nil, api.StaticToken(""), nil)
	if _, err := none.Suggestions(context.Background()); !errors.Is(err, session.ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired without token, got %v", err)
	}
}

func TestDiscipleship(t *testing.T) {
	_, v, _ := setup(t)
	ctx := context.Background()

	if err := v.Link(ctx, "u2", "u2"); err == nil {
		t.Fatalf("self link should fail")
	}
	if err := v.Link(ctx, "", "u1"); err == nil {
		t.Fatalf("missing party should fail")
	}
	if err := v.Link(ctx, "u2", "u1"); err != nil {
		t.Fatalf("link: %v", err)
	}
	ds, err := v.Disciples(ctx, "u2")
	if err != nil || len(ds) != 1 || ds[0].ID != "u1" {
		t.Fatalf("disciples: %+v %v", ds, err)
	}
	d, err := v.Discipler(ctx, "u1")
	if err != nil || d == nil || d.Name != "Ben" {
		t.Fatalf("discipler: %+v %v", d, err)
	}
	opp, err := v.OppositeRole(ctx)
	if err != nil || len(opp) != 2 {
		t.Fatalf("opposite role: %+v %v", opp, err)
	}
	if _, err := v.User(ctx, "nobody"); api.DetailOf(err) != "User not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}
