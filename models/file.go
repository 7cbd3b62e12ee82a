package models

// FileType classifies a locker item.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	FileTypeLink  FileType = "link"
	FileTypeOther FileType = "other"
)

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	switch t {
	case FileTypePDF, FileTypeImage, FileTypeVideo, FileTypeLink, FileTypeOther:
		return true
	}
	return false
}

// FileLockerItem is a stored file or external link associated with a team.
type FileLockerItem struct {
	ID        string   `json:"id"`
	TeamID    string   `json:"team_id"`
	Name      string   `json:"name"`
	Type      FileType `json:"type"`
	URL       string   `json:"url"` // external link or data: URI
	CreatedBy string   `json:"created_by"`
}
