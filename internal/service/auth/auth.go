package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"rtx-client/internal/api"
	xerrors "rtx-client/internal/pkg/errors"
	"rtx-client/internal/pkg/session"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// tokenKeys are the login-response fields consulted for the access token,
// in priority order.
var tokenKeys = []string{"token", "accessToken", "jwt", "id_token"}

// Profile is the user document served by /users/me. Optional fields default
// silently.
type Profile struct {
	ID       interface{} `json:"id,omitempty"`
	Username string      `json:"username,omitempty"`
	Role     string      `json:"role,omitempty"`
	Roles    []string    `json:"roles,omitempty"`
	Email    string      `json:"email,omitempty"`
}

// AuthService performs login against the remote API and owns the session
// slot lifecycle.
type AuthService struct {
	client   *api.Client
	sessions *session.Manager
	devToken string
	logger   *zap.Logger

	mu     sync.Mutex
	status Status
}

// NewAuthService creates the auth service. A previously persisted session
// starts the service in the authenticated state.
func NewAuthService(client *api.Client, sessions *session.Manager, devToken string, logger *zap.Logger) *AuthService {
	svc := &AuthService{
		client:   client,
		sessions: sessions,
		devToken: devToken,
		logger:   logger,
	}
	if sessions.IsAuthenticated() {
		svc.status = StatusAuthenticated
	}
	return svc
}

// Login authenticates against /auth/login without attaching a prior token,
// extracts the token from the first matching response field, and persists
// the canonical session. A response with no token-bearing field fails with
// ErrNoToken and persists nothing.
func (s *AuthService) Login(ctx context.Context, username, password string) (session.Session, error) {
	s.setStatus(StatusAuthenticating)

	payload := map[string]string{
		"username": strings.TrimSpace(username),
		"password": password,
	}

	var data map[string]interface{}
	err := s.client.Request(ctx, "/auth/login", api.Options{Method: http.MethodPost, Body: payload}, &data)
	if err != nil {
		s.setStatus(StatusAnonymous)
		return session.Session{}, err
	}

	token := firstString(data, tokenKeys...)
	if token == "" {
		s.setStatus(StatusAnonymous)
		s.logger.Warn("login response carried no token field")
		return session.Session{}, xerrors.ErrNoToken
	}

	sess := session.Session{Token: token, User: buildUser(data)}
	if err := s.sessions.Save(sess); err != nil {
		s.setStatus(StatusAnonymous)
		return session.Session{}, xerrors.Wrap(err, "persist session")
	}

	s.setStatus(StatusAuthenticated)
	s.logger.Info("login succeeded",
		zap.String("username", sess.User.Username),
		zap.String("role", sess.User.Role),
	)
	return sess, nil
}

// Logout clears the session slot. It cannot fail and is safe to call
// repeatedly.
func (s *AuthService) Logout() {
	s.sessions.Clear()
	s.setStatus(StatusAnonymous)
}

// Me fetches the authenticated user profile from /users/me. API failures
// surface to the caller, who decides whether to clear the session.
func (s *AuthService) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := s.client.Request(ctx, "/users/me", api.Options{RequiresAuth: true}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Bootstrap restores the persisted session at application start. With a
// saved token the user object is re-hydrated from /users/me; a 401/403
// clears the stale session, any other failure keeps it (hydration is best
// effort). With no saved session but a configured dev token, the profile
// probe is attempted once and failures are ignored.
func (s *AuthService) Bootstrap(ctx context.Context) session.Session {
	sess := s.sessions.Load()

	if sess.Token == "" {
		if s.devToken == "" {
			s.setStatus(StatusAnonymous)
			return session.Session{}
		}
		profile, err := s.Me(ctx)
		if err != nil {
			s.logger.Debug("dev token probe failed", zap.Error(err))
			s.setStatus(StatusAnonymous)
			return session.Session{}
		}
		sess = session.Session{Token: s.devToken, User: profileUser(profile)}
		if err := s.sessions.Save(sess); err != nil {
			s.logger.Warn("failed to persist dev session", zap.Error(err))
		}
		s.setStatus(StatusAuthenticated)
		return sess
	}

	profile, err := s.Me(ctx)
	if err != nil {
		if st := xerrors.StatusOf(err); st == http.StatusUnauthorized || st == http.StatusForbidden {
			s.setStatus(StatusExpired)
			s.sessions.Clear()
			s.setStatus(StatusAnonymous)
			s.logger.Info("saved session rejected by the API, cleared")
			return session.Session{}
		}
		s.logger.Debug("profile hydration skipped", zap.Error(err))
		s.setStatus(StatusAuthenticated)
		return sess
	}

	sess.User = profileUser(profile)
	if err := s.sessions.Save(sess); err != nil {
		s.logger.Warn("failed to persist hydrated session", zap.Error(err))
	}
	s.setStatus(StatusAuthenticated)
	return sess
}

// Status reports the current authentication state, re-reading the slot so
// external logouts are observed. A stored JWT whose exp has passed reports
// StatusExpired without a network call; opaque tokens are trusted until the
// API rejects them.
func (s *AuthService) Status() Status {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	if st != StatusAuthenticated {
		return st
	}
	sess := s.sessions.Load()
	if sess.Token == "" {
		return StatusAnonymous
	}
	if tokenExpired(sess.Token) {
		return StatusExpired
	}
	return StatusAuthenticated
}

// Current returns the persisted session.
func (s *AuthService) Current() session.Session {
	return s.sessions.Load()
}

func (s *AuthService) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// tokenExpired parses the token without verifying its signature (the client
// holds no key) and checks the exp claim when present.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// buildUser assembles the canonical user record from the login response.
// The user object may be nested under user or profile, or its fields may sit
// at the top level next to the token.
func buildUser(data map[string]interface{}) *session.User {
	src := data
	if nested, ok := data["user"].(map[string]interface{}); ok {
		src = nested
	} else if nested, ok := data["profile"].(map[string]interface{}); ok {
		src = nested
	}

	u := &session.User{}
	if v, ok := src["username"].(string); ok {
		u.Username = v
	}
	u.Roles = stringSlice(src["roles"])
	if len(u.Roles) == 0 && len(stringSlice(data["roles"])) > 0 {
		u.Roles = stringSlice(data["roles"])
	}
	role, _ := src["role"].(string)
	u.Role = session.DeriveRole(role, u.Roles)
	return u
}

func profileUser(p *Profile) *session.User {
	return &session.User{
		Username: p.Username,
		Role:     session.DeriveRole(p.Role, p.Roles),
		Roles:    p.Roles,
	}
}

func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
