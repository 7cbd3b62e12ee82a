package models

// Document is a text document stored for a team, optionally password protected.
type Document struct {
	ID                string `json:"id"`
	TeamID            string `json:"team_id"`
	Name              string `json:"name"`
	Content           string `json:"content,omitempty"`
	PasswordProtected bool   `json:"password_protected"`
	PasswordHash      string `json:"-"` // bcrypt, empty unless PasswordProtected
	CreatedBy         string `json:"created_by"`
}

// Redacted returns a copy safe for listings: protected documents lose their content.
func (d Document) Redacted() Document {
	d.PasswordHash = ""
	if d.PasswordProtected {
		d.Content = ""
	}
	return d
}
