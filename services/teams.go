package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"collaborax/database"
	"collaborax/models"
	"collaborax/utils"
)

type CreateTeamRequest struct {
	Name string `validate:"required,max=100"`
}

// CreateTeam inserts the team and its owner membership in one transaction.
func (s *WorkspaceService) CreateTeam(ctx context.Context, name string, owner models.User) (models.Team, error) {
	const op = "create_team"

	if err := utils.ValidateStruct(CreateTeamRequest{Name: name}); err != nil {
		return models.Team{}, s.fail(op, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	ok, err := s.userExists(ctx, owner.ID)
	if err != nil {
		return models.Team{}, s.fail(op, err)
	}
	if !ok {
		return models.Team{}, s.fail(op, ErrUserNotFound)
	}

	team := database.TeamRow{
		ID:      utils.NewID(utils.PrefixTeam),
		Name:    name,
		OwnerID: owner.ID,
	}
	ownerMember := database.TeamMemberRow{
		TeamID: team.ID,
		UserID: owner.ID,
		Role:   string(models.RoleOwner),
	}

	err = s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Create(&ownerMember).Error
	})
	if err != nil {
		return models.Team{}, s.fail(op, fmt.Errorf("failed to create team: %w", err))
	}

	s.commit(ctx, op)
	utils.LogEvent("team_created", map[string]interface{}{
		"team_id":  team.ID,
		"owner_id": owner.ID,
	})
	return models.Team{
		ID:      team.ID,
		Name:    team.Name,
		OwnerID: team.OwnerID,
		Members: []models.TeamMember{{UserID: owner.ID, Role: models.RoleOwner}},
	}, nil
}

// AddTeamMember resolves email to a user and adds them as a plain member.
// Lookup and duplicate failures come back as an unsuccessful Outcome with the
// store unchanged; err is reserved for storage faults.
func (s *WorkspaceService) AddTeamMember(ctx context.Context, teamID, email string) (Outcome, error) {
	const op = "add_team_member"

	ok, err := s.teamExists(ctx, teamID)
	if err != nil {
		return Outcome{}, s.fail(op, err)
	}
	if !ok {
		return s.reject(op, ErrTeamNotFound), nil
	}

	user, err := s.userByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return s.reject(op, ErrUserNotFound), nil
	}
	if err != nil {
		return Outcome{}, s.fail(op, err)
	}

	var count int64
	err = s.db(ctx).Model(&database.TeamMemberRow{}).
		Where("team_id = ? AND user_id = ?", teamID, user.ID).
		Count(&count).Error
	if err != nil {
		return Outcome{}, s.fail(op, err)
	}
	if count > 0 {
		return s.reject(op, ErrAlreadyMember), nil
	}

	row := database.TeamMemberRow{TeamID: teamID, UserID: user.ID, Role: string(models.RoleMember)}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.reject(op, ErrAlreadyMember), nil
		}
		return Outcome{}, s.fail(op, fmt.Errorf("failed to add member: %w", err))
	}

	s.commit(ctx, op)
	return Outcome{Success: true, Message: "member added"}, nil
}

// RemoveTeamMember deletes the membership row, whatever its role.
func (s *WorkspaceService) RemoveTeamMember(ctx context.Context, teamID, userID string) error {
	const op = "remove_team_member"

	err := s.db(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&database.TeamMemberRow{}).Error
	if err != nil {
		return s.fail(op, fmt.Errorf("failed to remove member: %w", err))
	}

	s.commit(ctx, op)
	return nil
}

// UpdateUserRole overwrites the role of an existing membership row. It does
// not protect the owner row; that is the caller's policy check.
func (s *WorkspaceService) UpdateUserRole(ctx context.Context, teamID, userID string, role models.Role) error {
	const op = "update_user_role"

	if !role.Valid() {
		return s.fail(op, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role))
	}

	result := s.db(ctx).Model(&database.TeamMemberRow{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Update("role", string(role))
	if result.Error != nil {
		return s.fail(op, fmt.Errorf("failed to update role: %w", result.Error))
	}
	if result.RowsAffected == 0 {
		return s.fail(op, ErrMembershipNotFound)
	}

	s.commit(ctx, op)
	return nil
}

// DeleteTeam removes the team and every row scoped to it in one transaction.
// If any delete fails nothing is removed.
func (s *WorkspaceService) DeleteTeam(ctx context.Context, teamID string) error {
	const op = "delete_team"

	ok, err := s.teamExists(ctx, teamID)
	if err != nil {
		return s.fail(op, err)
	}
	if !ok {
		return s.fail(op, ErrTeamNotFound)
	}

	err = s.db(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range database.TeamScoped() {
			if err := tx.Where("team_id = ?", teamID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", teamID).Delete(&database.TeamRow{}).Error
	})
	if err != nil {
		return s.fail(op, fmt.Errorf("failed to delete team: %w", err))
	}

	s.commit(ctx, op)
	utils.LogEvent("team_deleted", map[string]interface{}{"team_id": teamID})
	return nil
}

// ListTeams returns every team joined with its membership rows.
func (s *WorkspaceService) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []database.TeamRow
	if err := s.db(ctx).Order("rowid").Find(&teams).Error; err != nil {
		return nil, err
	}
	var members []database.TeamMemberRow
	if err := s.db(ctx).Order("rowid").Find(&members).Error; err != nil {
		return nil, err
	}

	byTeam := make(map[string][]models.TeamMember, len(teams))
	for _, m := range members {
		byTeam[m.TeamID] = append(byTeam[m.TeamID], models.TeamMember{
			UserID: m.UserID,
			Role:   models.Role(m.Role),
		})
	}

	result := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		teamMembers := byTeam[t.ID]
		if teamMembers == nil {
			teamMembers = []models.TeamMember{}
		}
		result = append(result, models.Team{
			ID:      t.ID,
			Name:    t.Name,
			OwnerID: t.OwnerID,
			Members: teamMembers,
		})
	}
	return result, nil
}
