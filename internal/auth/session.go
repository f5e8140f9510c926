// Package auth holds the bearer-token session for the API client. It
// never verifies signatures; the backend does that. Claims are parsed
// only to know who the token says we are and when to log in again.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrBadCredentials = errors.New("invalid username or password")

type Claims struct {
	Subject string
	Role    string // teacher|student
	Expires time.Time
}

// Session implements api.TokenSource.
type Session struct {
	mu     sync.RWMutex
	token  string
	claims Claims
	now    func() time.Time
}

// NewSession wraps an already-issued token, e.g. one injected by the
// hosting page. An unparseable token is still usable; it just carries
// no claims and never self-expires.
func NewSession(token string) *Session {
	s := &Session{token: token, now: time.Now}
	if c, err := parseClaims(token); err == nil {
		s.claims = c
	}
	return s
}

func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	if !s.claims.Expires.IsZero() && !s.claims.Expires.After(s.now()) {
		return "", false
	}
	return s.token, true
}

func (s *Session) Claims() Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// Valid reports whether the session holds an unexpired token.
func (s *Session) Valid() bool {
	_, ok := s.Token()
	return ok
}

func (s *Session) set(token string, c Claims) {
	s.mu.Lock()
	s.token = token
	s.claims = c
	s.mu.Unlock()
}

func parseClaims(token string) (Claims, error) {
	t, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, err
	}
	mc, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("unexpected claims shape")
	}
	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if role, ok := mc["role"].(string); ok {
		c.Role = role
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.Expires = exp.Time
	}
	return c, nil
}

// Login authenticates against the backend and returns a session
// holding the issued token.
func Login(ctx context.Context, httpClient *http.Client, baseURL, username, password string) (*Session, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, "POST",
		strings.TrimSuffix(baseURL, "/")+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, ErrBadCredentials
	}
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("login: %s", res.Status)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("login: empty token")
	}

	s := &Session{now: time.Now}
	c, err := parseClaims(out.Token)
	if err != nil {
		return nil, fmt.Errorf("login: bad token: %w", err)
	}
	s.set(out.Token, c)
	return s, nil
}
