package database

import (
	"context"

	"github.com/thereayou/warbler/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return translate(d.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error)
}

func (d *Database) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := d.db.WithContext(ctx).Preload("User").First(&message, id).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

// DeleteMessage removes the message and the likes pointing at it.
func (d *Database) DeleteMessage(ctx context.Context, id uint) error {
	return d.Transaction(ctx, func(tx *Database) error {
		if err := tx.db.Where("message_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		res := tx.db.Delete(&models.Message{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetUserMessages returns the newest messages of a user first.
func (d *Database) GetUserMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Preload("User").
		Find(&messages).Error

	return messages, err
}

// GetTimeline returns the newest messages written by userID or by anyone
// userID follows.
func (d *Database) GetTimeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var messages []models.Message

	followed := d.db.Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", userID)

	err := d.db.WithContext(ctx).
		Where("user_id IN (?) OR user_id = ?", followed, userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Preload("User").
		Find(&messages).Error

	return messages, err
}
