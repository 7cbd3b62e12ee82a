package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborax/database"
	"collaborax/models"
)

func TestCreateTeamAddsOwnerMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")

	team, err := svc.CreateTeam(ctx, "Alpha", ana)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, team.OwnerID)

	teams, err := svc.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	var owners []models.TeamMember
	for _, m := range teams[0].Members {
		if m.Role == models.RoleOwner {
			owners = append(owners, m)
		}
	}
	require.Len(t, owners, 1)
	assert.Equal(t, teams[0].OwnerID, owners[0].UserID)
}

func TestCreateTeamRequiresKnownOwner(t *testing.T) {
	svc := newTestService(t, database.NewMemoryBlobStore())

	_, err := svc.CreateTeam(context.Background(), "Alpha", models.User{ID: "user_ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.CreateTeam(context.Background(), "", models.User{ID: "user_ghost"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddTeamMemberOutcomes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")
	ben := signup(t, svc, "Ben", "ben@x.io")
	team, err := svc.CreateTeam(ctx, "Alpha", ana)
	require.NoError(t, err)

	outcome, err := svc.AddTeamMember(ctx, team.ID, "nobody@x.io")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "user not found", outcome.Message)

	outcome, err = svc.AddTeamMember(ctx, team.ID, "ben@x.io")
	require.NoError(t, err)
	assert.True(t, outcome.Success)

	outcome, err = svc.AddTeamMember(ctx, team.ID, "ben@x.io")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "user is already a member of this team", outcome.Message)

	outcome, err = svc.AddTeamMember(ctx, "team_ghost", "ben@x.io")
	require.NoError(t, err)
	assert.False(t, outcome.Success)

	teams, err := svc.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, []models.TeamMember{
		{UserID: ana.ID, Role: models.RoleOwner},
		{UserID: ben.ID, Role: models.RoleMember},
	}, teams[0].Members)
}

func TestRemoveTeamMember(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")
	ben := signup(t, svc, "Ben", "ben@x.io")
	team, err := svc.CreateTeam(ctx, "Alpha", ana)
	require.NoError(t, err)
	_, err = svc.AddTeamMember(ctx, team.ID, ben.Email)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveTeamMember(ctx, team.ID, ben.ID))

	teams, err := svc.ListTeams(ctx)
	require.NoError(t, err)
	assert.False(t, teams[0].HasMember(ben.ID))
	assert.True(t, teams[0].HasMember(ana.ID))
}

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")
	ben := signup(t, svc, "Ben", "ben@x.io")
	team, err := svc.CreateTeam(ctx, "Alpha", ana)
	require.NoError(t, err)
	_, err = svc.AddTeamMember(ctx, team.ID, ben.Email)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateUserRole(ctx, team.ID, ben.ID, models.RoleSubAdmin))

	teams, err := svc.ListTeams(ctx)
	require.NoError(t, err)
	member, ok := teams[0].Member(ben.ID)
	require.True(t, ok)
	assert.Equal(t, models.RoleSubAdmin, member.Role)

	assert.ErrorIs(t, svc.UpdateUserRole(ctx, team.ID, "user_ghost", models.RoleMember), ErrMembershipNotFound)
	assert.ErrorIs(t, svc.UpdateUserRole(ctx, team.ID, ben.ID, models.Role("admin")), ErrInvalidInput)
}

func TestDeleteTeamCascades(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")
	ben := signup(t, svc, "Ben", "ben@x.io")

	doomed, err := svc.CreateTeam(ctx, "Doomed", ana)
	require.NoError(t, err)
	kept, err := svc.CreateTeam(ctx, "Kept", ana)
	require.NoError(t, err)

	for _, team := range []models.Team{doomed, kept} {
		_, err = svc.AddTeamMember(ctx, team.ID, ben.Email)
		require.NoError(t, err)
		_, err = svc.AddMeeting(ctx, MeetingRequest{TeamID: team.ID, Title: "Sync", MeetLink: "https://meet.example.com/x", DateTime: time.Now().Add(time.Hour), CreatedBy: ana.ID})
		require.NoError(t, err)
		_, err = svc.AddDocument(ctx, DocumentRequest{TeamID: team.ID, Name: "Notes", Content: "c", CreatedBy: ana.ID})
		require.NoError(t, err)
		_, err = svc.AddFile(ctx, FileRequest{TeamID: team.ID, Name: "site", Type: models.FileTypeLink, URL: "https://example.com", CreatedBy: ana.ID})
		require.NoError(t, err)
		_, err = svc.AddMessage(ctx, MessageRequest{TeamID: team.ID, ChannelID: models.PublicChannel, SenderID: ben.ID, Content: "hi", Timestamp: time.Now()})
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteTeam(ctx, doomed.ID))

	db := svc.store.DB(ctx)
	for _, model := range database.TeamScoped() {
		var count int64
		require.NoError(t, db.Model(model).Where("team_id = ?", doomed.ID).Count(&count).Error)
		assert.Zero(t, count, "%T still has rows for the deleted team", model)

		require.NoError(t, db.Model(model).Where("team_id = ?", kept.ID).Count(&count).Error)
		assert.NotZero(t, count, "%T lost rows of another team", model)
	}

	teams, err := svc.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, kept.ID, teams[0].ID)

	assert.ErrorIs(t, svc.DeleteTeam(ctx, doomed.ID), ErrTeamNotFound)
}
