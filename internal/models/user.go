package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password;not null" json:"-"`
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	Bio            string    `json:"bio,omitempty"`
	Location       string    `json:"location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	Messages []Message `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// ProfileUpdate carries already validated profile form fields.
type ProfileUpdate struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

// Update copies the form fields onto the user. Nothing is persisted.
func (u *User) Update(p ProfileUpdate) {
	u.Username = p.Username
	u.Email = p.Email
	u.ImageURL = p.ImageURL
	u.HeaderImageURL = p.HeaderImageURL
	u.Bio = p.Bio
	u.Location = p.Location
	u.applyDefaults()
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.applyDefaults()
	return nil
}

func (u *User) applyDefaults() {
	if u.ImageURL == "" {
		u.ImageURL = DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = DefaultHeaderImageURL
	}
}
