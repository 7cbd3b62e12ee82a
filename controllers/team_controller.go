package controller

import (
	"context"

	"collaborax/models"
	"collaborax/policy"
	"collaborax/services"
	"collaborax/utils"
)

// CreateTeam creates a team owned by the signed-in user.
func (w *Workspace) CreateTeam(ctx context.Context, name string) (models.Team, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireUser()
	if err != nil {
		return models.Team{}, err
	}

	team, err := w.svc.CreateTeam(ctx, name, user)
	if err != nil {
		return models.Team{}, err
	}
	w.reload(ctx, "create_team")
	return team, nil
}

// AddTeamMember adds the user registered under email as a plain member.
// Requires owner or sub-admin.
func (w *Workspace) AddTeamMember(ctx context.Context, teamID, email string) (services.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireUser()
	if err != nil {
		return services.Outcome{}, err
	}
	team, err := w.team(teamID)
	if err != nil {
		return services.Outcome{}, err
	}
	if err := policy.CanAddMember(team, user.ID); err != nil {
		return services.Outcome{}, err
	}

	outcome, err := w.svc.AddTeamMember(ctx, teamID, email)
	if err != nil {
		return outcome, err
	}
	if outcome.Success {
		w.reload(ctx, "add_team_member")
	}
	return outcome, nil
}

// RemoveTeamMember removes a member after the caller has confirmed the action.
func (w *Workspace) RemoveTeamMember(ctx context.Context, teamID, userID string, confirmed bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireUser()
	if err != nil {
		return err
	}
	team, err := w.team(teamID)
	if err != nil {
		return err
	}
	if err := policy.CanRemoveMember(team, user.ID, userID); err != nil {
		return err
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := w.svc.RemoveTeamMember(ctx, teamID, userID); err != nil {
		return err
	}
	w.reload(ctx, "remove_team_member")
	return nil
}

// UpdateUserRole switches a member between member and sub-admin. Owner only.
func (w *Workspace) UpdateUserRole(ctx context.Context, teamID, userID string, role models.Role) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireUser()
	if err != nil {
		return err
	}
	team, err := w.team(teamID)
	if err != nil {
		return err
	}
	if err := policy.CanChangeRole(team, user.ID, userID, role); err != nil {
		return err
	}

	if err := w.svc.UpdateUserRole(ctx, teamID, userID, role); err != nil {
		return err
	}
	w.reload(ctx, "update_user_role")
	return nil
}

// DeleteTeam deletes the team and all of its content. confirmName must match
// the team name exactly. Owner only.
func (w *Workspace) DeleteTeam(ctx context.Context, teamID, confirmName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireUser()
	if err != nil {
		return err
	}
	team, err := w.team(teamID)
	if err != nil {
		return err
	}
	if err := policy.CanDeleteTeam(team, user.ID); err != nil {
		return err
	}
	if confirmName != team.Name {
		return ErrNotConfirmed
	}

	if err := w.svc.DeleteTeam(ctx, teamID); err != nil {
		return err
	}
	utils.LogEvent("team_deleted_by_owner", map[string]interface{}{
		"team_id": teamID,
		"user_id": user.ID,
	})
	w.reload(ctx, "delete_team")
	return nil
}
