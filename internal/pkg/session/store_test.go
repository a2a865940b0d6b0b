package session

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestManager_SaveAndLoad(t *testing.T) {
	m := newTestManager(t)

	sess := Session{
		Token: "abc",
		User:  &User{Username: "alice", Role: "ADMIN", Roles: []string{"ROLE_ADMIN"}},
	}
	if err := m.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := m.Load()
	if got.Token != "abc" {
		t.Fatalf("expected token %q got %q", "abc", got.Token)
	}
	if got.User == nil || got.User.Username != "alice" {
		t.Fatalf("expected user alice, got %+v", got.User)
	}
	if !got.IsAuthenticated() {
		t.Fatal("expected persisted session to be authenticated")
	}
}

func TestManager_RestoreAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	first, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := first.Save(Session{Token: "persisted"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh Manager on the same path simulates an application restart.
	second, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if !second.IsAuthenticated() {
		t.Fatal("expected restart to restore the authenticated session")
	}
}

func TestManager_MissingFile(t *testing.T) {
	m := newTestManager(t)

	got := m.Load()
	if got.IsAuthenticated() {
		t.Fatal("expected empty session for missing file")
	}
	if got.User != nil {
		t.Fatalf("expected nil user, got %+v", got.User)
	}
}

func TestManager_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	got := m.Load()
	if got.IsAuthenticated() {
		t.Fatal("expected corrupt slot to read as anonymous")
	}
}

func TestManager_ClearIdempotent(t *testing.T) {
	m := newTestManager(t)
	if err := m.Save(Session{Token: "abc"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	m.Clear()
	if m.IsAuthenticated() {
		t.Fatal("expected clear to drop the session")
	}
	// Repeated clears must stay safe.
	m.Clear()
	m.Clear()
}

func TestManager_TokenFallback(t *testing.T) {
	m := newTestManager(t)

	if got := m.Token("dev-token"); got != "dev-token" {
		t.Fatalf("expected dev token fallback, got %q", got)
	}

	if err := m.Save(Session{Token: "real"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := m.Token("dev-token"); got != "real" {
		t.Fatalf("expected saved token to win, got %q", got)
	}
}

func TestManager_ObservesExternalMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := m.Save(Session{Token: "abc"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Another process logging out removes the file behind our back.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatal("expected re-read to observe the external logout")
	}
}

func TestDeriveRole(t *testing.T) {
	cases := []struct {
		name  string
		role  string
		roles []string
		want  string
	}{
		{"direct role wins", "MANAGER", []string{"ROLE_ADMIN"}, "MANAGER"},
		{"prefix stripped", "", []string{"ROLE_ADMIN"}, "ADMIN"},
		{"no prefix kept", "", []string{"USER"}, "USER"},
		{"empty", "", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveRole(tc.role, tc.roles); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}
