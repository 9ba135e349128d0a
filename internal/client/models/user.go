// Package models defines the client-side data types: the authenticated
// profile, file metadata snapshots, the admin roster projection, and cached
// blob content.
package models

// Role is the server-assigned account role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Valid reports whether r is one of the roles the server understands.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// Profile is the identity subset of the session: the fields the server
// returns on login/verification and the only fields that survive restarts.
type Profile struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	IsMFAEnabled bool   `json:"isMFAEnabled"`
}

// UserRecord is one row of the admin roster. Read-only projection,
// fetched per view, never mutated locally.
type UserRecord struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	IsMFAEnabled bool   `json:"isMFAEnabled"`
}
