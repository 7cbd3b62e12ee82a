package models

import "time"

// Meeting is a scheduled call for a team.
type Meeting struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Title     string    `json:"title"`
	MeetLink  string    `json:"meet_link"`
	DateTime  time.Time `json:"date_time"`
	CreatedBy string    `json:"created_by"`
}
