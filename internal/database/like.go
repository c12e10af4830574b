package database

import (
	"context"

	"github.com/thereayou/warbler/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) Like(ctx context.Context, userID, messageID uint) error {
	like := models.Like{UserID: userID, MessageID: messageID}
	return translate(d.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error)
}

func (d *Database) Unlike(ctx context.Context, userID, messageID uint) error {
	return d.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&models.Like{}).Error
}

func (d *Database) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	return count > 0, err
}

// ToggleLike flips the like state and reports whether the message is liked
// afterwards.
func (d *Database) ToggleLike(ctx context.Context, userID, messageID uint) (bool, error) {
	var liked bool
	err := d.Transaction(ctx, func(tx *Database) error {
		exists, err := tx.IsLiked(ctx, userID, messageID)
		if err != nil {
			return err
		}
		if exists {
			return tx.Unlike(ctx, userID, messageID)
		}
		liked = true
		return tx.Like(ctx, userID, messageID)
	})
	return liked, err
}

// GetLikedMessages returns the messages userID liked, most recent like first.
func (d *Database) GetLikedMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.WithContext(ctx).
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC, messages.id DESC").
		Preload("User").
		Find(&messages).Error
	return messages, err
}

func (d *Database) GetLikedMessageIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := d.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", userID).
		Pluck("message_id", &ids).Error
	if err != nil {
		return nil, err
	}

	liked := make(map[uint]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (d *Database) CountLikes(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.Like{}).Count(&count).Error
	return count, err
}
