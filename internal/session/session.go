// Package session holds the signed-in identity: the current user and the bearer credential.
// Both are written through to a small SQLite file so a restart resumes the session.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"journey-cli/internal/api"
	"journey-cli/internal/logging"
	"journey-cli/internal/model"
	"journey-cli/internal/observe"
)

// ErrLoginRequired is returned by any operation that needs a credential when there is none,
// or when the remote store rejected the one we had.
var ErrLoginRequired = errors.New("not logged in: run journey login")

const (
	fileName = "session.sqlite"
	keyUser  = "user"
	keyToken = "token"
)

// Authenticator is the slice of the remote API the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Signup(ctx context.Context, u model.NewUser) (model.User, error)
}

// State is an immutable view handed to subscribers.
type State struct {
	User  *model.User
	Token string
}

func (s State) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

type Session struct {
	db     *sql.DB
	auth   Authenticator
	logger *log.Logger
	now    func() time.Time

	mu    sync.RWMutex
	user  *model.User
	token string

	subs observe.Subscribers[State]
}

// Open re-hydrates the session stored under dir, creating the store on first use.
func Open(ctx context.Context, dir string, auth Authenticator, logger *log.Logger) (*Session, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	db, err := openSQLite(ctx, filepath.Join(dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	s := &Session{
		db:     db,
		auth:   auth,
		logger: logging.OrDiscard(logger),
		now:    time.Now,
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS session_kv (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *Session) load(ctx context.Context) error {
	read := func(k string) (string, error) {
		var v string
		err := s.db.QueryRowContext(ctx, `SELECT v FROM session_kv WHERE k = ?`, k).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return v, err
	}
	rawUser, err := read(keyUser)
	if err != nil {
		return err
	}
	token, err := read(keyToken)
	if err != nil {
		return err
	}
	var user *model.User
	if strings.TrimSpace(rawUser) != "" {
		var u model.User
		if err := sonic.ConfigStd.UnmarshalFromString(rawUser, &u); err != nil || u.Validate() != nil {
			// A corrupt record is treated as signed out rather than failing startup.
			s.logger.WithFields(log.Fields{"op": "session.load"}).Warn("discarding unreadable stored user")
			return s.erase(ctx)
		}
		user = &u
	}
	s.mu.Lock()
	s.user = user
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
	return nil
}

func (s *Session) erase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_kv WHERE k IN (?, ?)`, keyUser, keyToken)
	return err
}

func (s *Session) persist(ctx context.Context, u model.User, token string) error {
	raw, err := sonic.ConfigStd.MarshalToString(u)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO session_kv(k, v) VALUES(?, ?)`, keyUser, raw); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO session_kv(k, v) VALUES(?, ?)`, keyToken, token); err != nil {
		return err
	}
	return tx.Commit()
}

// Login exchanges credentials for a token. Failure leaves the session untouched and carries
// the server's message (see api.DetailOf).
func (s *Session) Login(ctx context.Context, email, password string) (model.User, error) {
	res, err := s.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return model.User{}, err
	}
	if err := s.persist(ctx, res.User, res.AccessToken); err != nil {
		return model.User{}, fmt.Errorf("save session: %w", err)
	}
	u := res.User
	s.mu.Lock()
	s.user = &u
	s.token = res.AccessToken
	s.mu.Unlock()
	s.notify()
	return u, nil
}

// Signup registers an account; it does not sign in.
func (s *Session) Signup(ctx context.Context, nu model.NewUser) (model.User, error) {
	role, err := model.CanonicalRole(string(nu.Role))
	if err != nil {
		return model.User{}, err
	}
	nu.Role = role
	if strings.TrimSpace(nu.ID) == "" {
		nu.ID = fmt.Sprintf("user_%d", s.now().UnixMilli())
	}
	nu.Name = strings.TrimSpace(nu.Name)
	nu.Email = strings.TrimSpace(nu.Email)
	nu.Location = strings.TrimSpace(nu.Location)
	interests := make([]string, 0, len(nu.Interests))
	for _, in := range nu.Interests {
		if in = strings.TrimSpace(in); in != "" {
			interests = append(interests, in)
		}
	}
	nu.Interests = interests
	return s.auth.Signup(ctx, nu)
}

// Logout forgets the user and the credential. Safe to call when already signed out.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.erase(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	changed := s.user != nil || s.token != ""
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return nil
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{Token: s.token}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// Authenticated is true when a user and an unexpired credential are present.
func (s *Session) Authenticated() bool {
	if !s.State().Authenticated() {
		return false
	}
	exp, ok := s.ExpiresAt()
	return !ok || s.now().Before(exp)
}

// ExpiresAt reads the exp claim of the bearer token without verifying its signature.
// Opaque tokens report ok=false.
func (s *Session) ExpiresAt() (time.Time, bool) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, false
	}
	return TokenExpiry(tok)
}

func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Subscribe registers fn to run after every change; the returned func unregisters it.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	return s.subs.Add(fn)
}

func (s *Session) notify() {
	s.subs.Notify(s.State())
}

func (s *Session) Close() error {
	return s.db.Close()
}
