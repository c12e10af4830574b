package database

import (
	"context"

	"github.com/thereayou/warbler/internal/models"
	"gorm.io/gorm/clause"
)

// UserStats holds the counters shown on a profile.
type UserStats struct {
	Messages  int64 `json:"messages"`
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
	Likes     int64 `json:"likes"`
}

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	return translate(d.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error)
}

func (d *Database) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(d.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error)
}

func (d *Database) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SearchUsers returns users whose username contains query, all users when
// query is empty.
func (d *Database) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User

	q := d.db.WithContext(ctx).Order("username")
	if query != "" {
		q = q.Where("username LIKE ?", "%"+query+"%")
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes the user together with its messages, every like that
// touches the user or those messages and every follow row it appears in.
func (d *Database) DeleteUser(ctx context.Context, id uint) error {
	return d.Transaction(ctx, func(tx *Database) error {
		ownMessages := tx.db.Model(&models.Message{}).Select("id").Where("user_id = ?", id)

		if err := tx.db.Where("user_id = ? OR message_id IN (?)", id, ownMessages).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}

		if err := tx.db.Where("follower_id = ? OR followed_id = ?", id, id).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}

		if err := tx.db.Where("user_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}

		res := tx.db.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (d *Database) GetUserStats(ctx context.Context, id uint) (UserStats, error) {
	var stats UserStats
	db := d.db.WithContext(ctx)

	if err := db.Model(&models.Message{}).Where("user_id = ?", id).Count(&stats.Messages).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", id).Count(&stats.Following).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Follow{}).Where("followed_id = ?", id).Count(&stats.Followers).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Like{}).Where("user_id = ?", id).Count(&stats.Likes).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
