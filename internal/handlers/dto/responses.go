package dto

import (
	"time"

	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/models"
)

type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

type UserResponse struct {
	ID             uint                `json:"id"`
	Username       string              `json:"username"`
	ImageURL       string              `json:"image_url"`
	HeaderImageURL string              `json:"header_image_url"`
	Bio            string              `json:"bio,omitempty"`
	Location       string              `json:"location,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Stats          *database.UserStats `json:"stats,omitempty"`
}

type MessageResponse struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	User      UserInfo  `json:"user"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, ImageURL: u.ImageURL}
}

func NewUserResponse(u *models.User, stats *database.UserStats) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		ImageURL:       u.ImageURL,
		HeaderImageURL: u.HeaderImageURL,
		Bio:            u.Bio,
		Location:       u.Location,
		CreatedAt:      u.CreatedAt,
		Stats:          stats,
	}
}

func NewMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Text:      m.Text,
		Timestamp: m.Timestamp,
		User:      NewUserInfo(&m.User),
	}
}

func NewMessageResponses(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, len(messages))
	for i := range messages {
		out[i] = NewMessageResponse(&messages[i])
	}
	return out
}
