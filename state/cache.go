// Package state holds the in-memory mirror of the whole dataset that every
// read is served from. Each mutation is followed by a full reload.
package state

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"collaborax/metrics"
	"collaborax/models"
)

// Source is the query side of the data-access facade.
type Source interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListMeetings(ctx context.Context) ([]models.Meeting, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	ListFiles(ctx context.Context) ([]models.FileLockerItem, error)
	ListMessages(ctx context.Context) ([]models.ChatMessage, error)
}

// Snapshot is one consistent, immutable copy of every entity collection.
type Snapshot struct {
	Users     []models.User
	Teams     []models.Team
	Meetings  []models.Meeting
	Documents []models.Document
	Files     []models.FileLockerItem
	Messages  []models.ChatMessage
	LoadedAt  time.Time

	users map[string]int
	teams map[string]int
}

// Cache publishes snapshots through an atomic pointer so a reader sees the
// previous or the next snapshot, never a mix.
type Cache struct {
	source  Source
	current atomic.Pointer[Snapshot]
	log     *logrus.Entry
}

func NewCache(source Source) *Cache {
	c := &Cache{
		source: source,
		log:    logrus.WithField("component", "state"),
	}
	c.current.Store(newSnapshot(Snapshot{}))
	return c
}

// ReloadAll re-queries every collection and swaps in a new snapshot. On error
// the previous snapshot stays published.
func (c *Cache) ReloadAll(ctx context.Context) error {
	start := time.Now()

	var next Snapshot
	var err error
	if next.Users, err = c.source.ListUsers(ctx); err != nil {
		return c.reloadFailed("users", err)
	}
	if next.Teams, err = c.source.ListTeams(ctx); err != nil {
		return c.reloadFailed("teams", err)
	}
	if next.Meetings, err = c.source.ListMeetings(ctx); err != nil {
		return c.reloadFailed("meetings", err)
	}
	if next.Documents, err = c.source.ListDocuments(ctx); err != nil {
		return c.reloadFailed("documents", err)
	}
	if next.Files, err = c.source.ListFiles(ctx); err != nil {
		return c.reloadFailed("files", err)
	}
	if next.Messages, err = c.source.ListMessages(ctx); err != nil {
		return c.reloadFailed("messages", err)
	}
	next.LoadedAt = time.Now()

	c.current.Store(newSnapshot(next))
	metrics.ObserveReload(time.Since(start))
	return nil
}

func (c *Cache) reloadFailed(collection string, err error) error {
	c.log.WithFields(logrus.Fields{
		"collection": collection,
		"error":      err,
	}).Error("Failed to reload state")
	return fmt.Errorf("failed to reload %s: %w", collection, err)
}

// Snapshot returns the published snapshot. Callers must not modify it.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

func newSnapshot(s Snapshot) *Snapshot {
	s.users = make(map[string]int, len(s.Users))
	for i, u := range s.Users {
		s.users[u.ID] = i
	}
	s.teams = make(map[string]int, len(s.Teams))
	for i, t := range s.Teams {
		s.teams[t.ID] = i
	}
	return &s
}

// User looks up a user by id.
func (c *Cache) User(id string) (models.User, bool) {
	s := c.Snapshot()
	i, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return s.Users[i], true
}

// Users returns every user in insertion order.
func (c *Cache) Users() []models.User {
	return append([]models.User(nil), c.Snapshot().Users...)
}

// Team looks up a team, with a private copy of its member list.
func (c *Cache) Team(id string) (models.Team, bool) {
	s := c.Snapshot()
	i, ok := s.teams[id]
	if !ok {
		return models.Team{}, false
	}
	return copyTeam(s.Teams[i]), true
}

// Membership returns the user's row in the team, if any.
func (c *Cache) Membership(teamID, userID string) (models.TeamMember, bool) {
	team, ok := c.Team(teamID)
	if !ok {
		return models.TeamMember{}, false
	}
	return team.Member(userID)
}

// UserTeams returns the teams userID belongs to, in insertion order.
func (c *Cache) UserTeams(userID string) []models.Team {
	var teams []models.Team
	for _, t := range c.Snapshot().Teams {
		if t.HasMember(userID) {
			teams = append(teams, copyTeam(t))
		}
	}
	return teams
}

// TeamMembers pairs each membership row of the team with its user. Rows whose
// user no longer exists are skipped.
func (c *Cache) TeamMembers(teamID string) []MemberView {
	team, ok := c.Team(teamID)
	if !ok {
		return nil
	}
	views := make([]MemberView, 0, len(team.Members))
	for _, m := range team.Members {
		user, ok := c.User(m.UserID)
		if !ok {
			continue
		}
		views = append(views, MemberView{User: user, Role: m.Role})
	}
	return views
}

// MemberView is a membership row joined with its user.
type MemberView struct {
	User models.User `json:"user"`
	Role models.Role `json:"role"`
}

// TeamMeetings returns the team's meetings, latest date first.
func (c *Cache) TeamMeetings(teamID string) []models.Meeting {
	var meetings []models.Meeting
	for _, m := range c.Snapshot().Meetings {
		if m.TeamID == teamID {
			meetings = append(meetings, m)
		}
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].DateTime.After(meetings[j].DateTime)
	})
	return meetings
}

// TeamDocuments returns the team's documents in insertion order.
func (c *Cache) TeamDocuments(teamID string) []models.Document {
	var docs []models.Document
	for _, d := range c.Snapshot().Documents {
		if d.TeamID == teamID {
			docs = append(docs, d)
		}
	}
	return docs
}

// Document looks up a document by id.
func (c *Cache) Document(id string) (models.Document, bool) {
	for _, d := range c.Snapshot().Documents {
		if d.ID == id {
			return d, true
		}
	}
	return models.Document{}, false
}

// TeamFiles returns the team's locker items in insertion order.
func (c *Cache) TeamFiles(teamID string) []models.FileLockerItem {
	var files []models.FileLockerItem
	for _, f := range c.Snapshot().Files {
		if f.TeamID == teamID {
			files = append(files, f)
		}
	}
	return files
}

// ChannelMessages returns the messages of one channel of a team, oldest
// first. Channel identity alone scopes the result; it is the same whoever
// reads it.
func (c *Cache) ChannelMessages(teamID, channelID string) []models.ChatMessage {
	var messages []models.ChatMessage
	for _, m := range c.Snapshot().Messages {
		if m.TeamID == teamID && m.ChannelID == channelID {
			messages = append(messages, m)
		}
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages
}

// DirectChannels lists the users userID can open a direct channel with: the
// other members of the team.
func (c *Cache) DirectChannels(teamID, userID string) []models.User {
	var users []models.User
	for _, m := range c.TeamMembers(teamID) {
		if m.User.ID != userID {
			users = append(users, m.User)
		}
	}
	return users
}

// UpcomingMeetings returns up to limit meetings of the user's teams scheduled
// after now, soonest first. A limit <= 0 means no limit.
func (c *Cache) UpcomingMeetings(userID string, now time.Time, limit int) []models.Meeting {
	teams := c.teamSet(userID)

	var meetings []models.Meeting
	for _, m := range c.Snapshot().Meetings {
		if teams[m.TeamID] && m.DateTime.After(now) {
			meetings = append(meetings, m)
		}
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].DateTime.Before(meetings[j].DateTime)
	})
	return truncate(meetings, limit)
}

// RecentDocuments returns up to limit documents of the user's teams, newest
// first. A limit <= 0 means no limit.
func (c *Cache) RecentDocuments(userID string, limit int) []models.Document {
	teams := c.teamSet(userID)
	docs := c.Snapshot().Documents

	var recent []models.Document
	for i := len(docs) - 1; i >= 0; i-- {
		if teams[docs[i].TeamID] {
			recent = append(recent, docs[i])
		}
	}
	return truncate(recent, limit)
}

func (c *Cache) teamSet(userID string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range c.Snapshot().Teams {
		if t.HasMember(userID) {
			set[t.ID] = true
		}
	}
	return set
}

func copyTeam(t models.Team) models.Team {
	t.Members = append([]models.TeamMember(nil), t.Members...)
	return t
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
