package models

import "time"

// Like means UserID likes MessageID.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`
	MessageID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time

	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (Like) TableName() string { return "likes" }
