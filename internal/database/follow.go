package database

import (
	"context"

	"github.com/thereayou/warbler/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) Follow(ctx context.Context, followerID, followedID uint) error {
	follow := models.Follow{FollowerID: followerID, FollowedID: followedID}
	return translate(d.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow).Error)
}

func (d *Database) Unfollow(ctx context.Context, followerID, followedID uint) error {
	return d.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{}).Error
}

// GetFollowing returns the users userID follows, in follow order.
func (d *Database) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := d.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at, users.id").
		Find(&users).Error
	return users, err
}

// GetFollowers returns the users following userID.
func (d *Database) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := d.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("follows.created_at, users.id").
		Find(&users).Error
	return users, err
}

func (d *Database) GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := d.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}

func (d *Database) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

// GetFollowingIDs returns the set of users userID follows.
func (d *Database) GetFollowingIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := d.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
