package session

import "strings"

// rolePrefix is stripped from raw authority names (ROLE_ADMIN -> ADMIN).
const rolePrefix = "ROLE_"

// User is the minimal identity carried in the session slot.
type User struct {
	Username string   `json:"username,omitempty"`
	Role     string   `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Session is the client-held record of authentication token and user
// identity. A zero Session is anonymous.
type Session struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// IsAuthenticated reports whether the session carries a token.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// DeriveRole picks the primary role: the direct role field when present,
// else the first entry of roles with the ROLE_ prefix stripped.
func DeriveRole(role string, roles []string) string {
	if role != "" {
		return role
	}
	if len(roles) > 0 {
		return strings.TrimPrefix(roles[0], rolePrefix)
	}
	return ""
}
