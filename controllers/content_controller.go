package controller

import (
	"context"
	"errors"
	"time"

	"collaborax/models"
	"collaborax/policy"
	"collaborax/services"
	"collaborax/utils"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrWrongPassword    = errors.New("incorrect document password")
)

// ScheduleMeeting adds a meeting to a team the signed-in user belongs to.
func (w *Workspace) ScheduleMeeting(ctx context.Context, teamID, title, meetLink string, at time.Time) (models.Meeting, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireMember(teamID)
	if err != nil {
		return models.Meeting{}, err
	}

	meeting, err := w.svc.AddMeeting(ctx, services.MeetingRequest{
		TeamID:    teamID,
		Title:     title,
		MeetLink:  meetLink,
		DateTime:  at,
		CreatedBy: user.ID,
	})
	if err != nil {
		return models.Meeting{}, err
	}
	w.reload(ctx, "add_meeting")
	return meeting, nil
}

// AddDocument stores a document. A non-empty password protects it.
func (w *Workspace) AddDocument(ctx context.Context, teamID, name, content, password string) (models.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireMember(teamID)
	if err != nil {
		return models.Document{}, err
	}

	doc, err := w.svc.AddDocument(ctx, services.DocumentRequest{
		TeamID:            teamID,
		Name:              name,
		Content:           content,
		PasswordProtected: password != "",
		Password:          password,
		CreatedBy:         user.ID,
	})
	if err != nil {
		return models.Document{}, err
	}
	w.reload(ctx, "add_document")
	return doc.Redacted(), nil
}

// OpenDocument returns a document with its content. Protected documents
// require the password they were created with.
func (w *Workspace) OpenDocument(docID, password string) (models.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, ok := w.cache.Document(docID)
	if !ok {
		return models.Document{}, ErrDocumentNotFound
	}
	if _, err := w.requireMember(doc.TeamID); err != nil {
		return models.Document{}, err
	}
	if doc.PasswordProtected && !utils.CheckPassword(doc.PasswordHash, password) {
		return models.Document{}, ErrWrongPassword
	}

	doc.PasswordHash = ""
	return doc, nil
}

// AddFile stores a locker item. An empty fileType is resolved from the URL
// and name: http(s) links become "link", uploads are classified by extension
// or content.
func (w *Workspace) AddFile(ctx context.Context, teamID, name, url string, fileType models.FileType) (models.FileLockerItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireMember(teamID)
	if err != nil {
		return models.FileLockerItem{}, err
	}

	if fileType == "" {
		if utils.IsExternalLink(url) {
			fileType = models.FileTypeLink
		} else {
			fileType = utils.DetectFileType(name, url)
		}
	}

	item, err := w.svc.AddFile(ctx, services.FileRequest{
		TeamID:    teamID,
		Name:      name,
		Type:      fileType,
		URL:       url,
		CreatedBy: user.ID,
	})
	if err != nil {
		return models.FileLockerItem{}, err
	}
	w.reload(ctx, "add_file")
	return item, nil
}

// SendMessage posts content to the public channel or to the direct channel
// of another team member, stamped with the current time.
func (w *Workspace) SendMessage(ctx context.Context, teamID, channelID, content string) (models.ChatMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.requireUser()
	if err != nil {
		return models.ChatMessage{}, err
	}
	team, err := w.team(teamID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if err := policy.CanMessage(team, user.ID, channelID); err != nil {
		return models.ChatMessage{}, err
	}

	msg, err := w.svc.AddMessage(ctx, services.MessageRequest{
		TeamID:    teamID,
		ChannelID: channelID,
		SenderID:  user.ID,
		Content:   content,
		Timestamp: w.now(),
	})
	if err != nil {
		return models.ChatMessage{}, err
	}
	w.reload(ctx, "add_message")
	return msg, nil
}

func (w *Workspace) requireMember(teamID string) (models.User, error) {
	user, err := w.requireUser()
	if err != nil {
		return models.User{}, err
	}
	team, err := w.team(teamID)
	if err != nil {
		return models.User{}, err
	}
	if err := policy.CanView(team, user.ID); err != nil {
		return models.User{}, err
	}
	return user, nil
}
