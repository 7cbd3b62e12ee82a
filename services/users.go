package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"collaborax/database"
	"collaborax/models"
	"collaborax/utils"
)

type SignupRequest struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Signup creates a user. A duplicate email is rejected by the unique index
// and reported as ErrEmailTaken; nothing is written in that case.
func (s *WorkspaceService) Signup(ctx context.Context, req SignupRequest) (models.User, error) {
	const op = "signup"

	if err := utils.ValidateStruct(req); err != nil {
		return models.User{}, s.fail(op, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if err := utils.ValidateEmailFormat(req.Email); err != nil {
		return models.User{}, s.fail(op, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.User{}, s.fail(op, fmt.Errorf("failed to hash password: %w", err))
	}

	row := database.UserRow{
		ID:       utils.NewID(utils.PrefixUser),
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
	}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, s.fail(op, ErrEmailTaken)
		}
		return models.User{}, s.fail(op, fmt.Errorf("failed to create user: %w", err))
	}

	s.commit(ctx, op)
	utils.LogEvent("user_signed_up", map[string]interface{}{"user_id": row.ID})
	return toUser(row), nil
}

// Authenticate returns the user whose email and password both match exactly.
// Every mismatch is reported as ErrInvalidCredentials.
func (s *WorkspaceService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var row database.UserRow
	err := s.db(ctx).Where("email = ?", email).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if !utils.CheckPassword(row.Password, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return toUser(row), nil
}

// ListUsers returns every user without credential material.
func (s *WorkspaceService) ListUsers(ctx context.Context) ([]models.User, error) {
	var rows []database.UserRow
	if err := s.db(ctx).Select("id", "name", "email").Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUser(row))
	}
	return users, nil
}

func (s *WorkspaceService) userByEmail(ctx context.Context, email string) (models.User, error) {
	var row database.UserRow
	err := s.db(ctx).Select("id", "name", "email").Where("email = ?", email).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return toUser(row), nil
}

func toUser(row database.UserRow) models.User {
	return models.User{ID: row.ID, Name: row.Name, Email: row.Email}
}
