package service

import (
	"context"
	"strings"

	"updoot/internal/models"
	"updoot/internal/repository"
	"updoot/internal/validation"
)

// UserService handles account business logic
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterInput for creating a new account
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register validates the input, hashes the password and stores the user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if fields := validation.ValidateRegister(in.Email, in.Username, in.Password); len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields...)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login resolves the account by username or email and checks the password.
// Both failure modes return the same unauthorized error.
func (s *UserService) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(usernameOrEmail, "@") {
		user, err = s.userRepo.GetByEmail(ctx, usernameOrEmail)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, usernameOrEmail)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("invalid credentials")
	}

	ok, err := VerifyPassword(user.Password, password)
	if err != nil || !ok {
		return nil, models.NewUnauthorizedError("invalid credentials")
	}
	return user, nil
}

// ChangePassword validates and replaces the password of an existing account.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, newPassword string) (*models.User, error) {
	if fields := validation.ValidatePassword(newPassword); len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields...)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", userID)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return nil, err
	}
	user.Password = hash
	return user, nil
}
