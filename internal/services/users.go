package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

type UserService struct {
	db       *database.Database
	hashCost int
}

func NewUserService(db *database.Database) *UserService {
	return &UserService{db: db, hashCost: bcrypt.DefaultCost}
}

// WithHashCost returns a copy using the given bcrypt cost.
func (s *UserService) WithHashCost(cost int) *UserService {
	cp := *s
	cp.hashCost = cost
	return &cp
}

// Signup hashes the password and stores a new user. A taken username or
// email yields database.ErrDuplicateEntry.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		ImageURL:     req.ImageURL,
	}

	if err := s.db.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when username and password match. Both an
// unknown username and a wrong password give a nil user and a nil error;
// the error is reserved for storage failures.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.db.FindUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}
	return user, nil
}

// UpdateProfile applies upd and saves it. user is left untouched when the
// save fails.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, upd models.ProfileUpdate) error {
	updated := *user
	updated.Update(upd)
	if err := s.db.UpdateUser(ctx, &updated); err != nil {
		return err
	}
	*user = updated
	return nil
}

func (s *UserService) IsFollowing(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.db.IsFollowing(ctx, userID, otherID)
}

func (s *UserService) IsFollowedBy(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.db.IsFollowing(ctx, otherID, userID)
}
