package models

import "slices"

// UserRole represents the role carried by an authenticated session
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
	RoleViewer UserRole = "viewer"
)

// Session is the authentication context of one request.
// The zero value is the anonymous session.
type Session struct {
	UserID string     `json:"user_id,omitempty"`
	Email  string     `json:"email,omitempty"`
	Roles  []UserRole `json:"roles,omitempty"`
}

// Anonymous returns the session of an unauthenticated caller
func Anonymous() Session {
	return Session{}
}

// Authenticated returns the session of a known user
func Authenticated(userID, email string, roles ...UserRole) Session {
	return Session{UserID: userID, Email: email, Roles: roles}
}

// IsAnonymous returns true if no user is attached
func (s Session) IsAnonymous() bool {
	return s.UserID == ""
}

// HasRole returns true if the session carries the role
func (s Session) HasRole(role UserRole) bool {
	return slices.Contains(s.Roles, role)
}

// IsAdmin returns true if the session has admin role
func (s Session) IsAdmin() bool {
	return s.HasRole(RoleAdmin)
}

// Principal returns the user id, or "anonymous"
func (s Session) Principal() string {
	if s.IsAnonymous() {
		return "anonymous"
	}
	return s.UserID
}

// IsValidRole checks if a role name is known
func IsValidRole(role string) bool {
	switch UserRole(role) {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}
