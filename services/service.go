// Package services is the data-access facade over the persistent store: the
// only code that reads or writes relational rows. It translates rows to the
// typed entities in models and performs no authorization; callers run the
// policy checks first.
package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"collaborax/database"
	"collaborax/metrics"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrAlreadyMember      = errors.New("user is already a member of this team")
	ErrMembershipNotFound = errors.New("membership not found")
)

// Outcome is a structured success/failure result with a human-readable reason.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WorkspaceService implements the queries and mutations of the workspace.
type WorkspaceService struct {
	store *database.Store
	log   *logrus.Entry
}

func NewWorkspaceService(store *database.Store) *WorkspaceService {
	return &WorkspaceService{
		store: store,
		log:   logrus.WithField("component", "facade"),
	}
}

// Init restores or creates the underlying store.
func (s *WorkspaceService) Init(ctx context.Context) error {
	return s.store.Initialize(ctx)
}

// Unsaved reports whether recent writes have not reached durable storage.
func (s *WorkspaceService) Unsaved() bool {
	return s.store.Unsaved()
}

// Export returns a raw SQLite image of the whole database.
func (s *WorkspaceService) Export(ctx context.Context) ([]byte, error) {
	return s.store.Export(ctx)
}

func (s *WorkspaceService) db(ctx context.Context) *gorm.DB {
	return s.store.DB(ctx)
}

// commit persists after a successful write. Persist failures are reported by
// the store and never fail the mutation.
func (s *WorkspaceService) commit(ctx context.Context, operation string) {
	metrics.RecordMutation(operation, nil)
	if err := s.store.Persist(ctx); err != nil {
		s.log.WithFields(logrus.Fields{
			"operation": operation,
		}).Warn("Mutation applied in memory only")
	}
}

func (s *WorkspaceService) fail(operation string, err error) error {
	metrics.RecordMutation(operation, err)
	return err
}

// reject counts a mutation refused for a domain reason and turns the reason
// into a failed Outcome.
func (s *WorkspaceService) reject(operation string, reason error) Outcome {
	metrics.RecordMutation(operation, reason)
	return Outcome{Success: false, Message: reason.Error()}
}

func (s *WorkspaceService) teamExists(ctx context.Context, teamID string) (bool, error) {
	var count int64
	err := s.db(ctx).Model(&database.TeamRow{}).Where("id = ?", teamID).Count(&count).Error
	return count > 0, err
}

func (s *WorkspaceService) userExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db(ctx).Model(&database.UserRow{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

// requireRefs checks the team and user foreign references of an insert.
func (s *WorkspaceService) requireRefs(ctx context.Context, teamID string, userIDs ...string) error {
	ok, err := s.teamExists(ctx, teamID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTeamNotFound
	}
	for _, id := range userIDs {
		ok, err := s.userExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
	}
	return nil
}
