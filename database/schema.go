package database

import "time"

// SchemaVersion is stamped into every new database. Restoring a blob with a
// different stamp fails; there are no migrations between versions.
const SchemaVersion = 1

// UserRow is the users relation.
type UserRow struct {
	ID       string `gorm:"primaryKey;type:text"`
	Name     string `gorm:"type:text;not null"`
	Email    string `gorm:"type:text;uniqueIndex;not null"`
	Password string `gorm:"type:text;not null"` // bcrypt hash
}

func (UserRow) TableName() string { return "users" }

// TeamRow is the teams relation. OwnerID duplicates the owner membership row.
type TeamRow struct {
	ID      string `gorm:"primaryKey;type:text"`
	Name    string `gorm:"type:text;not null"`
	OwnerID string `gorm:"type:text;not null;index"`
}

func (TeamRow) TableName() string { return "teams" }

// TeamMemberRow is keyed by (team_id, user_id), one row per user per team.
type TeamMemberRow struct {
	TeamID string `gorm:"primaryKey;type:text"`
	UserID string `gorm:"primaryKey;type:text;index"`
	Role   string `gorm:"type:text;not null"`
}

func (TeamMemberRow) TableName() string { return "team_members" }

type MeetingRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	TeamID    string    `gorm:"type:text;not null;index"`
	Title     string    `gorm:"type:text;not null"`
	MeetLink  string    `gorm:"type:text;not null"`
	DateTime  time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:text;not null"`
}

func (MeetingRow) TableName() string { return "meetings" }

// DocumentRow keeps the protection flag as a 0/1 integer.
type DocumentRow struct {
	ID                string  `gorm:"primaryKey;type:text"`
	TeamID            string  `gorm:"type:text;not null;index"`
	Name              string  `gorm:"type:text;not null"`
	Content           string  `gorm:"type:text"`
	PasswordProtected int     `gorm:"type:integer;not null"`
	Password          *string `gorm:"type:text"` // bcrypt hash, NULL unless protected
	CreatedBy         string  `gorm:"type:text;not null"`
}

func (DocumentRow) TableName() string { return "documents" }

type FileRow struct {
	ID        string `gorm:"primaryKey;type:text"`
	TeamID    string `gorm:"type:text;not null;index"`
	Name      string `gorm:"type:text;not null"`
	Type      string `gorm:"type:text;not null"`
	URL       string `gorm:"column:url;type:text;not null"`
	CreatedBy string `gorm:"type:text;not null"`
}

func (FileRow) TableName() string { return "files" }

type MessageRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	TeamID    string    `gorm:"type:text;not null;index:idx_messages_channel"`
	ChannelID string    `gorm:"type:text;not null;index:idx_messages_channel"`
	SenderID  string    `gorm:"type:text;not null"`
	Content   string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"not null"`
}

func (MessageRow) TableName() string { return "messages" }

// SchemaMeta holds the single version stamp row.
type SchemaMeta struct {
	ID      int `gorm:"primaryKey;autoIncrement:false"`
	Version int `gorm:"not null"`
}

func (SchemaMeta) TableName() string { return "schema_meta" }

// Tables lists every relation in creation order.
func Tables() []interface{} {
	return []interface{}{
		&SchemaMeta{},
		&UserRow{},
		&TeamRow{},
		&TeamMemberRow{},
		&MeetingRow{},
		&DocumentRow{},
		&FileRow{},
		&MessageRow{},
	}
}

// TeamScoped lists the relations holding a team_id column, i.e. everything a
// team delete must cascade to besides the teams row itself.
func TeamScoped() []interface{} {
	return []interface{}{
		&TeamMemberRow{},
		&MeetingRow{},
		&DocumentRow{},
		&FileRow{},
		&MessageRow{},
	}
}
