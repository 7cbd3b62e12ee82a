package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborax/models"
)

type fakeSource struct {
	users     []models.User
	teams     []models.Team
	meetings  []models.Meeting
	documents []models.Document
	files     []models.FileLockerItem
	messages  []models.ChatMessage
	err       error
}

func (f *fakeSource) ListUsers(context.Context) ([]models.User, error) { return f.users, f.err }
func (f *fakeSource) ListTeams(context.Context) ([]models.Team, error) { return f.teams, nil }
func (f *fakeSource) ListMeetings(context.Context) ([]models.Meeting, error) {
	return f.meetings, nil
}
func (f *fakeSource) ListDocuments(context.Context) ([]models.Document, error) {
	return f.documents, nil
}
func (f *fakeSource) ListFiles(context.Context) ([]models.FileLockerItem, error) {
	return f.files, nil
}
func (f *fakeSource) ListMessages(context.Context) ([]models.ChatMessage, error) {
	return f.messages, nil
}

var base = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func fixture() *fakeSource {
	return &fakeSource{
		users: []models.User{
			{ID: "user_a", Name: "Ana"},
			{ID: "user_b", Name: "Ben"},
			{ID: "user_c", Name: "Cy"},
		},
		teams: []models.Team{
			{ID: "team_1", Name: "Alpha", OwnerID: "user_a", Members: []models.TeamMember{
				{UserID: "user_a", Role: models.RoleOwner},
				{UserID: "user_b", Role: models.RoleMember},
				{UserID: "user_gone", Role: models.RoleMember},
			}},
			{ID: "team_2", Name: "Beta", OwnerID: "user_c", Members: []models.TeamMember{
				{UserID: "user_c", Role: models.RoleOwner},
			}},
		},
		meetings: []models.Meeting{
			{ID: "meet_1", TeamID: "team_1", Title: "past", DateTime: base.Add(-time.Hour)},
			{ID: "meet_2", TeamID: "team_1", Title: "later", DateTime: base.Add(48 * time.Hour)},
			{ID: "meet_3", TeamID: "team_1", Title: "soon", DateTime: base.Add(time.Hour)},
			{ID: "meet_4", TeamID: "team_2", Title: "other team", DateTime: base.Add(time.Hour)},
		},
		documents: []models.Document{
			{ID: "doc_1", TeamID: "team_1", Name: "one"},
			{ID: "doc_2", TeamID: "team_2", Name: "two"},
			{ID: "doc_3", TeamID: "team_1", Name: "three"},
		},
		files: []models.FileLockerItem{
			{ID: "file_1", TeamID: "team_1", Name: "a.pdf", Type: models.FileTypePDF},
			{ID: "file_2", TeamID: "team_2", Name: "b.png", Type: models.FileTypeImage},
		},
		messages: []models.ChatMessage{
			{ID: "msg_1", TeamID: "team_1", ChannelID: models.PublicChannel, SenderID: "user_a", Content: "second", Timestamp: base.Add(2 * time.Minute)},
			{ID: "msg_2", TeamID: "team_1", ChannelID: models.PublicChannel, SenderID: "user_b", Content: "first", Timestamp: base.Add(time.Minute)},
			{ID: "msg_3", TeamID: "team_1", ChannelID: "user_b", SenderID: "user_a", Content: "dm to ben", Timestamp: base},
			{ID: "msg_4", TeamID: "team_2", ChannelID: models.PublicChannel, SenderID: "user_c", Content: "other team", Timestamp: base},
		},
	}
}

func loadedCache(t *testing.T, src Source) *Cache {
	t.Helper()
	c := NewCache(src)
	require.NoError(t, c.ReloadAll(context.Background()))
	return c
}

func TestEmptyCache(t *testing.T) {
	c := NewCache(&fakeSource{})

	_, ok := c.Team("team_1")
	assert.False(t, ok)
	_, ok = c.User("user_a")
	assert.False(t, ok)
	assert.Empty(t, c.UserTeams("user_a"))
	assert.Empty(t, c.ChannelMessages("team_1", models.PublicChannel))
}

func TestLookups(t *testing.T) {
	c := loadedCache(t, fixture())

	team, ok := c.Team("team_1")
	require.True(t, ok)
	assert.Equal(t, "Alpha", team.Name)

	user, ok := c.User("user_b")
	require.True(t, ok)
	assert.Equal(t, "Ben", user.Name)

	m, ok := c.Membership("team_1", "user_b")
	require.True(t, ok)
	assert.Equal(t, models.RoleMember, m.Role)

	_, ok = c.Membership("team_2", "user_b")
	assert.False(t, ok)
	_, ok = c.Membership("team_ghost", "user_b")
	assert.False(t, ok)

	teams := c.UserTeams("user_a")
	require.Len(t, teams, 1)
	assert.Equal(t, "team_1", teams[0].ID)
}

func TestTeamIsACopy(t *testing.T) {
	c := loadedCache(t, fixture())

	team, ok := c.Team("team_1")
	require.True(t, ok)
	team.Members[0].Role = models.RoleMember

	again, _ := c.Team("team_1")
	assert.Equal(t, models.RoleOwner, again.Members[0].Role)
}

func TestTeamMembersSkipsDanglingRows(t *testing.T) {
	c := loadedCache(t, fixture())

	members := c.TeamMembers("team_1")
	require.Len(t, members, 2)
	assert.Equal(t, "user_a", members[0].User.ID)
	assert.Equal(t, "user_b", members[1].User.ID)

	assert.Nil(t, c.TeamMembers("team_ghost"))
}

func TestTeamMeetingsNewestFirst(t *testing.T) {
	c := loadedCache(t, fixture())

	meetings := c.TeamMeetings("team_1")
	require.Len(t, meetings, 3)
	assert.Equal(t, []string{"later", "soon", "past"}, []string{meetings[0].Title, meetings[1].Title, meetings[2].Title})
}

func TestTeamDocumentsAndFiles(t *testing.T) {
	c := loadedCache(t, fixture())

	docs := c.TeamDocuments("team_1")
	require.Len(t, docs, 2)
	assert.Equal(t, "doc_1", docs[0].ID)
	assert.Equal(t, "doc_3", docs[1].ID)

	files := c.TeamFiles("team_2")
	require.Len(t, files, 1)
	assert.Equal(t, "file_2", files[0].ID)

	doc, ok := c.Document("doc_2")
	require.True(t, ok)
	assert.Equal(t, "two", doc.Name)
}

func TestChannelScoping(t *testing.T) {
	c := loadedCache(t, fixture())

	public := c.ChannelMessages("team_1", models.PublicChannel)
	require.Len(t, public, 2)
	assert.Equal(t, "first", public[0].Content)
	assert.Equal(t, "second", public[1].Content)

	dm := c.ChannelMessages("team_1", "user_b")
	require.Len(t, dm, 1)
	assert.Equal(t, "msg_3", dm[0].ID)

	assert.Empty(t, c.ChannelMessages("team_2", "user_b"))
}

func TestDirectChannels(t *testing.T) {
	c := loadedCache(t, fixture())

	users := c.DirectChannels("team_1", "user_a")
	require.Len(t, users, 1)
	assert.Equal(t, "user_b", users[0].ID)
}

func TestDashboardProjections(t *testing.T) {
	c := loadedCache(t, fixture())

	upcoming := c.UpcomingMeetings("user_a", base, 0)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "soon", upcoming[0].Title)
	assert.Equal(t, "later", upcoming[1].Title)

	assert.Len(t, c.UpcomingMeetings("user_a", base, 1), 1)

	recent := c.RecentDocuments("user_a", 3)
	require.Len(t, recent, 2)
	assert.Equal(t, "doc_3", recent[0].ID)
	assert.Equal(t, "doc_1", recent[1].ID)
}

func TestReloadFailureKeepsSnapshot(t *testing.T) {
	src := fixture()
	c := loadedCache(t, src)
	before := c.Snapshot()

	src.err = errors.New("engine gone")
	src.users = nil
	require.Error(t, c.ReloadAll(context.Background()))

	assert.Same(t, before, c.Snapshot())
	_, ok := c.User("user_a")
	assert.True(t, ok)
}

func TestReloadSwapsWholeSnapshot(t *testing.T) {
	src := fixture()
	c := loadedCache(t, src)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := c.Snapshot()
			// users and their index are published together
			assert.Equal(t, len(s.Users), len(s.users))
		}
	}()

	for i := 0; i < 50; i++ {
		src.users = append(src.users, models.User{ID: "user_extra_" + string(rune('a'+i%26)) + string(rune('a'+i/26))})
		require.NoError(t, c.ReloadAll(context.Background()))
	}
	close(stop)
	wg.Wait()

	assert.Len(t, c.Users(), 53)
}
