package models

import "time"

// PublicChannel is the team-wide chat channel. Any other channel id is the
// user id of a direct-message target.
const PublicChannel = "public"

// ChatMessage is a single chat line in a team channel.
type ChatMessage struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	ChannelID string    `json:"channel_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
