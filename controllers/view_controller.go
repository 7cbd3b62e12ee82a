package controller

import (
	"collaborax/models"
	"collaborax/state"
)

const dashboardLimit = 3

// Dashboard is the signed-in user's overview across their teams.
type Dashboard struct {
	User             models.User       `json:"user"`
	Teams            []models.Team     `json:"teams"`
	UpcomingMeetings []models.Meeting  `json:"upcoming_meetings"`
	RecentDocuments  []models.Document `json:"recent_documents"`
}

// TeamView is everything a member sees on a team page.
type TeamView struct {
	Team           models.Team             `json:"team"`
	Role           models.Role             `json:"role"`
	Members        []state.MemberView      `json:"members"`
	Meetings       []models.Meeting        `json:"meetings"`
	Documents      []models.Document       `json:"documents"`
	Files          []models.FileLockerItem `json:"files"`
	DirectChannels []models.User           `json:"direct_channels"`
}

func (w *Workspace) Dashboard() (Dashboard, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireUser()
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		User:             user,
		Teams:            w.cache.UserTeams(user.ID),
		UpcomingMeetings: w.cache.UpcomingMeetings(user.ID, w.now(), dashboardLimit),
		RecentDocuments:  redactAll(w.cache.RecentDocuments(user.ID, dashboardLimit)),
	}, nil
}

// Team returns the team page for a member. Protected document content is
// redacted; use OpenDocument to read it.
func (w *Workspace) Team(teamID string) (TeamView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireMember(teamID)
	if err != nil {
		return TeamView{}, err
	}
	team, err := w.team(teamID)
	if err != nil {
		return TeamView{}, err
	}
	member, _ := team.Member(user.ID)

	return TeamView{
		Team:           team,
		Role:           member.Role,
		Members:        w.cache.TeamMembers(teamID),
		Meetings:       w.cache.TeamMeetings(teamID),
		Documents:      redactAll(w.cache.TeamDocuments(teamID)),
		Files:          w.cache.TeamFiles(teamID),
		DirectChannels: w.cache.DirectChannels(teamID, user.ID),
	}, nil
}

// Messages returns one channel of a team, oldest first.
func (w *Workspace) Messages(teamID, channelID string) ([]models.ChatMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.requireMember(teamID); err != nil {
		return nil, err
	}
	return w.cache.ChannelMessages(teamID, channelID), nil
}

func redactAll(docs []models.Document) []models.Document {
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		out[i] = d.Redacted()
	}
	return out
}
