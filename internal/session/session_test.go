package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"journey-cli/internal/api"
	"journey-cli/internal/model"
	"journey-cli/internal/remotetest"
)

func newSession(t *testing.T, dir string, srv *remotetest.Server) *Session {
	t.Helper()
	s, err := Open(context.Background(), dir, api.New(srv.URL, 0, nil, nil), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoginPersistsAcrossRestart(t *testing.T) {
	srv := remotetest.New(t)
	srv.AddUser(model.User{ID: "user_1", Name: "Alice", Email: "alice@example.com", Role: model.RoleDiscipler}, "pw")
	dir := t.TempDir()

	s := newSession(t, dir, srv)
	if s.Authenticated() {
		t.Fatalf("fresh session should be signed out")
	}
	var seen []State
	s.Subscribe(func(st State) { seen = append(seen, st) })

	u, err := s.Login(context.Background(), " alice@example.com ", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != "user_1" || !s.Authenticated() {
		t.Fatalf("expected authenticated session, got %+v", u)
	}
	if len(seen) != 1 || !seen[0].Authenticated() {
		t.Fatalf("subscriber not notified: %+v", seen)
	}
	exp, ok := s.ExpiresAt()
	if !ok || time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v %v", exp, ok)
	}
	_ = s.Close()

	again := newSession(t, dir, srv)
	got, ok := again.User()
	if !ok || got.Email != "alice@example.com" || again.Token() == "" {
		t.Fatalf("session not restored: %+v", got)
	}
}

func TestLoginFailureKeepsState(t *testing.T) {
	srv := remotetest.New(t)
	srv.AddUser(model.User{ID: "user_1", Email: "alice@example.com", Role: model.RoleDiscipler}, "pw")
	s := newSession(t, t.TempDir(), srv)

	_, err := s.Login(context.Background(), "alice@example.com", "nope")
	if api.DetailOf(err) != "Invalid credentials" {
		t.Fatalf("expected server detail, got %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("failed login must not store a token")
	}
	if got := srv.CallCount("POST", "/auth/login"); got != 1 {
		t.Fatalf("login must not retry, saw %d calls", got)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	srv := remotetest.New(t)
	srv.AddUser(model.User{ID: "user_1", Email: "alice@example.com", Role: model.RoleDisciple}, "pw")
	dir := t.TempDir()
	s := newSession(t, dir, srv)
	if _, err := s.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	notified := 0
	s.Subscribe(func(State) { notified++ })
	for i := 0; i < 2; i++ {
		if err := s.Logout(context.Background()); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if notified != 1 {
		t.Fatalf("expected one notification, got %d", notified)
	}
	if _, ok := s.User(); ok || s.Token() != "" {
		t.Fatalf("logout left state behind")
	}
	_ = s.Close()

	again := newSession(t, dir, srv)
	if _, ok := again.User(); ok {
		t.Fatalf("logout did not erase durable storage")
	}
}

func TestSignupCanonicalizesRole(t *testing.T) {
	srv := remotetest.New(t)
	s := newSession(t, t.TempDir(), srv)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	u, err := s.Signup(context.Background(), model.NewUser{
		Name: "Bob", Email: "bob@example.com", Password: "pw", Role: "DISCIPLER",
		Interests: []string{" prayer ", "", "music"},
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Role != model.RoleDiscipler || u.ID != "user_1700000000000" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if len(u.Interests) != 2 || u.Interests[0] != "prayer" {
		t.Fatalf("interests not cleaned: %v", u.Interests)
	}
	if _, ok := s.User(); ok {
		t.Fatalf("signup must not sign in")
	}
}

func TestSignupRejectsUnknownRoleLocally(t *testing.T) {
	srv := remotetest.New(t)
	s := newSession(t, t.TempDir(), srv)
	_, err := s.Signup(context.Background(), model.NewUser{Name: "X", Email: "x@example.com", Password: "pw", Role: "pastor"})
	if err == nil {
		t.Fatalf("expected role error")
	}
	if n := srv.CallCount("POST", "/auth/signup"); n != 0 {
		t.Fatalf("expected no remote call, saw %d", n)
	}
}

func TestSignupSurfacesValidationMessage(t *testing.T) {
	srv := remotetest.New(t)
	s := newSession(t, t.TempDir(), srv)
	_, err := s.Signup(context.Background(), model.NewUser{Name: "X", Email: "not-an-email", Password: "pw", Role: "disciple"})
	if api.DetailOf(err) != "value is not a valid email address" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpiredTokenIsNotAuthenticated(t *testing.T) {
	srv := remotetest.New(t)
	srv.AddUser(model.User{ID: "user_1", Email: "alice@example.com", Role: model.RoleDiscipler}, "pw")
	srv.SetTokenTTL(time.Minute)
	s := newSession(t, t.TempDir(), srv)
	if _, err := s.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	if s.Authenticated() {
		t.Fatalf("expired token should not count as authenticated")
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Unix(1900000000, 0)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	cases := []struct {
		token string
		ok    bool
	}{
		{signed, true},
		{"opaque-token", false},
		{"", false},
	}
	for _, tc := range cases {
		got, ok := TokenExpiry(tc.token)
		if ok != tc.ok {
			t.Fatalf("TokenExpiry(%q) ok=%v want %v", tc.token, ok, tc.ok)
		}
		if ok && !got.Equal(exp) {
			t.Fatalf("expiry: got %v want %v", got, exp)
		}
	}
}

func TestCorruptStoredUserSignsOut(t *testing.T) {
	srv := remotetest.New(t)
	dir := t.TempDir()
	s := newSession(t, dir, srv)
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO session_kv(k, v) VALUES('user', '{not json'), ('token', 't')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = s.Close()

	again := newSession(t, dir, srv)
	if again.Token() != "" {
		t.Fatalf("expected signed-out session")
	}
}
