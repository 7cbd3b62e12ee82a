// Package policy holds the team role rules. Every function is pure: it looks
// only at the team value it is given and the acting user id.
package policy

import (
	"errors"

	"collaborax/models"
)

var (
	ErrNotMember      = errors.New("not a member of this team")
	ErrForbidden      = errors.New("insufficient role for this action")
	ErrOwnerImmutable = errors.New("the team owner cannot be removed or re-roled")
	ErrInvalidTarget  = errors.New("invalid target member")
)

// RequireMember returns the actor's membership row or ErrNotMember.
func RequireMember(team models.Team, actorID string) (models.TeamMember, error) {
	m, ok := team.Member(actorID)
	if !ok {
		return models.TeamMember{}, ErrNotMember
	}
	return m, nil
}

// CanView allows any member to read team data and add content to it.
func CanView(team models.Team, actorID string) error {
	_, err := RequireMember(team, actorID)
	return err
}

// CanAddMember allows the owner and sub-admins.
func CanAddMember(team models.Team, actorID string) error {
	actor, err := RequireMember(team, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleOwner && actor.Role != models.RoleSubAdmin {
		return ErrForbidden
	}
	return nil
}

// CanRemoveMember never allows removing the owner. The owner may remove any
// other member; a sub-admin may remove plain members only.
func CanRemoveMember(team models.Team, actorID, targetID string) error {
	actor, err := RequireMember(team, actorID)
	if err != nil {
		return err
	}
	target, ok := team.Member(targetID)
	if !ok {
		return ErrInvalidTarget
	}
	if target.Role == models.RoleOwner || targetID == team.OwnerID {
		return ErrOwnerImmutable
	}

	switch actor.Role {
	case models.RoleOwner:
		return nil
	case models.RoleSubAdmin:
		if target.Role == models.RoleMember {
			return nil
		}
	}
	return ErrForbidden
}

// CanChangeRole allows only the owner, only between member and sub-admin.
func CanChangeRole(team models.Team, actorID, targetID string, role models.Role) error {
	actor, err := RequireMember(team, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleOwner {
		return ErrForbidden
	}
	target, ok := team.Member(targetID)
	if !ok {
		return ErrInvalidTarget
	}
	if target.Role == models.RoleOwner || targetID == team.OwnerID || role == models.RoleOwner {
		return ErrOwnerImmutable
	}
	if role != models.RoleMember && role != models.RoleSubAdmin {
		return ErrInvalidTarget
	}
	return nil
}

// CanDeleteTeam allows only the owner.
func CanDeleteTeam(team models.Team, actorID string) error {
	actor, err := RequireMember(team, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleOwner {
		return ErrForbidden
	}
	return nil
}

// CanMessage checks a send to channelID: the public channel is open to every
// member, a direct channel must name another member of the same team.
func CanMessage(team models.Team, actorID, channelID string) error {
	if _, err := RequireMember(team, actorID); err != nil {
		return err
	}
	if channelID == models.PublicChannel {
		return nil
	}
	if channelID == actorID || !team.HasMember(channelID) {
		return ErrInvalidTarget
	}
	return nil
}
