package services

import (
	"context"
	"fmt"
	"time"

	"collaborax/database"
	"collaborax/models"
	"collaborax/utils"
)

type MeetingRequest struct {
	TeamID    string    `validate:"required"`
	Title     string    `validate:"required,max=200"`
	MeetLink  string    `validate:"required,url"`
	DateTime  time.Time `validate:"required"`
	CreatedBy string    `validate:"required"`
}

type DocumentRequest struct {
	TeamID            string `validate:"required"`
	Name              string `validate:"required,max=200"`
	Content           string
	PasswordProtected bool
	Password          string `validate:"required_if=PasswordProtected true"`
	CreatedBy         string `validate:"required"`
}

type FileRequest struct {
	TeamID    string          `validate:"required"`
	Name      string          `validate:"required,max=255"`
	Type      models.FileType `validate:"required,oneof=pdf image video link other"`
	URL       string          `validate:"required"`
	CreatedBy string          `validate:"required"`
}

type MessageRequest struct {
	TeamID    string    `validate:"required"`
	ChannelID string    `validate:"required"`
	SenderID  string    `validate:"required"`
	Content   string    `validate:"required"`
	Timestamp time.Time `validate:"required"`
}

// AddMeeting schedules a meeting for a team.
func (s *WorkspaceService) AddMeeting(ctx context.Context, req MeetingRequest) (models.Meeting, error) {
	const op = "add_meeting"

	if err := utils.ValidateStruct(req); err != nil {
		return models.Meeting{}, s.fail(op, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if err := s.requireRefs(ctx, req.TeamID, req.CreatedBy); err != nil {
		return models.Meeting{}, s.fail(op, err)
	}

	row := database.MeetingRow{
		ID:        utils.NewID(utils.PrefixMeeting),
		TeamID:    req.TeamID,
		Title:     req.Title,
		MeetLink:  req.MeetLink,
		DateTime:  req.DateTime.UTC(),
		CreatedBy: req.CreatedBy,
	}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return models.Meeting{}, s.fail(op, fmt.Errorf("failed to create meeting: %w", err))
	}

	s.commit(ctx, op)
	return toMeeting(row), nil
}

// AddDocument stores a document. A protected document keeps only the bcrypt
// hash of its password.
func (s *WorkspaceService) AddDocument(ctx context.Context, req DocumentRequest) (models.Document, error) {
	const op = "add_document"

	if err := utils.ValidateStruct(req); err != nil {
		return models.Document{}, s.fail(op, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if err := s.requireRefs(ctx, req.TeamID, req.CreatedBy); err != nil {
		return models.Document{}, s.fail(op, err)
	}

	row := database.DocumentRow{
		ID:        utils.NewID(utils.PrefixDocument),
		TeamID:    req.TeamID,
		Name:      req.Name,
		Content:   req.Content,
		CreatedBy: req.CreatedBy,
	}
	if req.PasswordProtected {
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return models.Document{}, s.fail(op, fmt.Errorf("failed to hash password: %w", err))
		}
		row.PasswordProtected = 1
		row.Password = utils.Pointer(hashed)
	}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return models.Document{}, s.fail(op, fmt.Errorf("failed to create document: %w", err))
	}

	s.commit(ctx, op)
	return toDocument(row), nil
}

// AddFile stores a locker item. The type must already be resolved.
func (s *WorkspaceService) AddFile(ctx context.Context, req FileRequest) (models.FileLockerItem, error) {
	const op = "add_file"

	if err := utils.ValidateStruct(req); err != nil {
		return models.FileLockerItem{}, s.fail(op, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if err := s.requireRefs(ctx, req.TeamID, req.CreatedBy); err != nil {
		return models.FileLockerItem{}, s.fail(op, err)
	}

	row := database.FileRow{
		ID:        utils.NewID(utils.PrefixFile),
		TeamID:    req.TeamID,
		Name:      req.Name,
		Type:      string(req.Type),
		URL:       req.URL,
		CreatedBy: req.CreatedBy,
	}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return models.FileLockerItem{}, s.fail(op, fmt.Errorf("failed to create file: %w", err))
	}

	s.commit(ctx, op)
	return toFile(row), nil
}

// AddMessage appends a chat message to a channel of a team.
func (s *WorkspaceService) AddMessage(ctx context.Context, req MessageRequest) (models.ChatMessage, error) {
	const op = "add_message"

	if err := utils.ValidateStruct(req); err != nil {
		return models.ChatMessage{}, s.fail(op, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if err := s.requireRefs(ctx, req.TeamID, req.SenderID); err != nil {
		return models.ChatMessage{}, s.fail(op, err)
	}

	row := database.MessageRow{
		ID:        utils.NewID(utils.PrefixMessage),
		TeamID:    req.TeamID,
		ChannelID: req.ChannelID,
		SenderID:  req.SenderID,
		Content:   req.Content,
		Timestamp: req.Timestamp.UTC(),
	}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return models.ChatMessage{}, s.fail(op, fmt.Errorf("failed to create message: %w", err))
	}

	s.commit(ctx, op)
	return toMessage(row), nil
}

func (s *WorkspaceService) ListMeetings(ctx context.Context) ([]models.Meeting, error) {
	var rows []database.MeetingRow
	if err := s.db(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	meetings := make([]models.Meeting, 0, len(rows))
	for _, row := range rows {
		meetings = append(meetings, toMeeting(row))
	}
	return meetings, nil
}

// ListDocuments returns every document with the protection flag as a bool.
// Hashes are included for the caller's password check and never serialized.
func (s *WorkspaceService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var rows []database.DocumentRow
	if err := s.db(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, toDocument(row))
	}
	return docs, nil
}

func (s *WorkspaceService) ListFiles(ctx context.Context) ([]models.FileLockerItem, error) {
	var rows []database.FileRow
	if err := s.db(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	files := make([]models.FileLockerItem, 0, len(rows))
	for _, row := range rows {
		files = append(files, toFile(row))
	}
	return files, nil
}

func (s *WorkspaceService) ListMessages(ctx context.Context) ([]models.ChatMessage, error) {
	var rows []database.MessageRow
	if err := s.db(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	messages := make([]models.ChatMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, toMessage(row))
	}
	return messages, nil
}

func toMeeting(row database.MeetingRow) models.Meeting {
	return models.Meeting{
		ID:        row.ID,
		TeamID:    row.TeamID,
		Title:     row.Title,
		MeetLink:  row.MeetLink,
		DateTime:  row.DateTime,
		CreatedBy: row.CreatedBy,
	}
}

func toDocument(row database.DocumentRow) models.Document {
	doc := models.Document{
		ID:                row.ID,
		TeamID:            row.TeamID,
		Name:              row.Name,
		Content:           row.Content,
		PasswordProtected: row.PasswordProtected != 0,
		CreatedBy:         row.CreatedBy,
	}
	if row.Password != nil {
		doc.PasswordHash = *row.Password
	}
	return doc
}

func toFile(row database.FileRow) models.FileLockerItem {
	return models.FileLockerItem{
		ID:        row.ID,
		TeamID:    row.TeamID,
		Name:      row.Name,
		Type:      models.FileType(row.Type),
		URL:       row.URL,
		CreatedBy: row.CreatedBy,
	}
}

func toMessage(row database.MessageRow) models.ChatMessage {
	return models.ChatMessage{
		ID:        row.ID,
		TeamID:    row.TeamID,
		ChannelID: row.ChannelID,
		SenderID:  row.SenderID,
		Content:   row.Content,
		Timestamp: row.Timestamp,
	}
}
