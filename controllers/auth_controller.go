package controller

import (
	"context"

	"collaborax/models"
	"collaborax/services"
	"collaborax/utils"
)

// Signup registers a user and signs them in.
func (w *Workspace) Signup(ctx context.Context, name, email, password string) (models.User, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.svc.Signup(ctx, services.SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return models.User{}, err
	}

	w.reload(ctx, "signup")
	w.signInLocked(ctx, user)
	return user, nil
}

// Login signs in the user matching email and password.
func (w *Workspace) Login(ctx context.Context, email, password string) (models.User, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	user, err := w.svc.Authenticate(ctx, email, password)
	if err != nil {
		utils.LogEvent("login_failed", map[string]interface{}{"email": email})
		return models.User{}, err
	}

	w.signInLocked(ctx, user)
	return user, nil
}

// Logout clears the session. It is a no-op when nobody is signed in.
func (w *Workspace) Logout(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signOutLocked(ctx)
}

// CurrentUser returns the signed-in user.
func (w *Workspace) CurrentUser() (models.User, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return models.User{}, false
	}
	return *w.current, true
}

func (w *Workspace) signInLocked(ctx context.Context, user models.User) {
	w.current = &user
	if err := w.sessions.Save(ctx, user); err != nil {
		utils.LogWarning("session_save_failed", err, map[string]interface{}{
			"user_id": user.ID,
		})
	}
	utils.LogEvent("signed_in", map[string]interface{}{"user_id": user.ID})
}

func (w *Workspace) signOutLocked(ctx context.Context) {
	w.current = nil
	if err := w.sessions.Clear(ctx); err != nil {
		utils.LogWarning("session_clear_failed", err, nil)
	}
}
