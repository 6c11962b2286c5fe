package domain

import "strings"

// Role is the authorization role handed over by the identity provider.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes a raw role claim. Unknown values fall back to RoleUser.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Actor carries authenticated user info for a single request.
type Actor struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManage reports whether the actor may act on a seat held by holderID.
func (a Actor) CanManage(holderID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == holderID)
}
