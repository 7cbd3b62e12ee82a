package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"collaborax/models"
	"collaborax/services"
	"collaborax/state"
	"collaborax/utils"
)

var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrNotConfirmed = errors.New("destructive action was not confirmed")
)

// Workspace is the session-aware surface over the facade. Every mutation is
// checked against the role policy for the signed-in user, applied through the
// facade, and followed by a full state reload. Reads come from the cache.
type Workspace struct {
	svc      *services.WorkspaceService
	cache    *state.Cache
	sessions *SessionStore
	log      *logrus.Entry

	mu      sync.Mutex
	current *models.User
	now     func() time.Time
}

func NewWorkspace(svc *services.WorkspaceService, sessions *SessionStore) *Workspace {
	return &Workspace{
		svc:      svc,
		cache:    state.NewCache(svc),
		sessions: sessions,
		log:      logrus.WithField("component", "workspace"),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for message timestamps and the
// dashboard.
func (w *Workspace) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// Start initializes the store, loads the full state and restores the saved
// session. A saved identity that no longer resolves to a user is dropped.
func (w *Workspace) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.svc.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := w.cache.ReloadAll(ctx); err != nil {
		return err
	}

	user, err := w.sessions.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		return nil
	case err != nil:
		w.log.WithError(err).Warn("Discarding unreadable session")
		w.signOutLocked(ctx)
		return nil
	}

	if _, ok := w.cache.User(user.ID); !ok {
		w.log.WithField("user_id", user.ID).Warn("Discarding session for unknown user")
		w.signOutLocked(ctx)
		return nil
	}
	w.current = &user
	return nil
}

// State exposes the read-only cache.
func (w *Workspace) State() *state.Cache {
	return w.cache
}

// Unsaved reports whether recent changes have not reached durable storage.
func (w *Workspace) Unsaved() bool {
	return w.svc.Unsaved()
}

// Export returns a raw SQLite image of the database for the signed-in user to
// keep as a backup.
func (w *Workspace) Export(ctx context.Context) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.requireUser(); err != nil {
		return nil, err
	}
	return w.svc.Export(ctx)
}

func (w *Workspace) requireUser() (models.User, error) {
	if w.current == nil {
		return models.User{}, ErrNotSignedIn
	}
	return *w.current, nil
}

func (w *Workspace) team(teamID string) (models.Team, error) {
	team, ok := w.cache.Team(teamID)
	if !ok {
		return models.Team{}, services.ErrTeamNotFound
	}
	return team, nil
}

// reload refreshes the cache after a committed mutation. The mutation stands
// even if the reload fails; the next successful reload catches up.
func (w *Workspace) reload(ctx context.Context, operation string) {
	if err := w.cache.ReloadAll(ctx); err != nil {
		utils.LogError("state_reload_failed", err, map[string]interface{}{
			"operation": operation,
		})
	}
}
