package models

// Role is a member's permission level inside a team.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleSubAdmin Role = "sub-admin"
	RoleMember   Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleSubAdmin, RoleMember:
		return true
	}
	return false
}

// Team represents a collaboration group owned by a single user
type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`

	// Relations
	Members []TeamMember `json:"members"`
}

// TeamMember represents team members and their roles
type TeamMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"` // owner, sub-admin, member
}

// Member returns the membership row for userID, if any.
func (t Team) Member(userID string) (TeamMember, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return TeamMember{}, false
}

// HasMember reports whether userID holds a membership row in the team.
func (t Team) HasMember(userID string) bool {
	_, ok := t.Member(userID)
	return ok
}
