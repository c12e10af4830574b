package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/database/dbtest"
	"github.com/thereayou/warbler/internal/models"
)

func createUser(t *testing.T, db *database.Database, username, email string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email, PasswordHash: "HASHED_PASSWORD"}
	require.NoError(t, db.SaveUser(context.Background(), user))
	return user
}

func createMessage(t *testing.T, db *database.Database, owner *models.User, text string) *models.Message {
	t.Helper()
	msg := &models.Message{Text: text, UserID: owner.ID}
	require.NoError(t, db.SaveMessage(context.Background(), msg))
	return msg
}

func TestNewUserHasNoRelations(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	setup := createUser(t, db, "testuser1", "setup@setup.com")
	u := createUser(t, db, "testuser", "test@test.com")

	stats, err := db.GetUserStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, database.UserStats{}, stats)

	following, err := db.IsFollowing(ctx, u.ID, setup.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followedBy, err := db.IsFollowing(ctx, setup.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, followedBy)

	assert.Equal(t, models.DefaultImageURL, u.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, u.HeaderImageURL)
}

func TestSaveMessageBelongsToOwner(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := createUser(t, db, "testuser1", "setup@setup.com")
	msg := createMessage(t, db, user, "Warblers are bright and beautiful songbirds")

	assert.False(t, msg.Timestamp.IsZero())

	loaded, err := db.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, loaded.User.ID)
	assert.Equal(t, "testuser1", loaded.User.Username)

	createMessage(t, db, user, "Here is a 2nd message")
	createMessage(t, db, user, "We should now have 3 messages")

	messages, err := db.GetUserMessages(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
	assert.Equal(t, "We should now have 3 messages", messages[0].Text)
}

func TestSaveMessageRequiresExistingOwner(t *testing.T) {
	db := dbtest.New(t)

	err := db.SaveMessage(context.Background(), &models.Message{Text: "orphan", UserID: 999})
	assert.Error(t, err)
}

func TestLikeDoesNotChangeLikersMessages(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	author := createUser(t, db, "testuser1", "setup@setup.com")
	msg := createMessage(t, db, author, "likeable")
	other := createUser(t, db, "test_other_user", "other_user@connect.com")

	require.NoError(t, db.Like(ctx, other.ID, msg.ID))
	// liking twice keeps a single row
	require.NoError(t, db.Like(ctx, other.ID, msg.ID))

	liked, err := db.GetLikedMessages(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, msg.ID, liked[0].ID)

	own, err := db.GetUserMessages(ctx, other.ID, 100)
	require.NoError(t, err)
	assert.Empty(t, own)

	count, err := db.CountLikes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	ids, err := db.GetLikedMessageIDs(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, ids[msg.ID])
}

func TestToggleLike(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	author := createUser(t, db, "author", "author@test.com")
	fan := createUser(t, db, "fan", "fan@test.com")
	msg := createMessage(t, db, author, "toggle me")

	liked, err := db.ToggleLike(ctx, fan.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = db.ToggleLike(ctx, fan.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	isLiked, err := db.IsLiked(ctx, fan.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, isLiked)
}

func TestDeleteUserCascades(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := createUser(t, db, "testuser1", "setup@setup.com")
	msg := createMessage(t, db, user, "soon gone")
	other := createUser(t, db, "test_other_user", "other_user@connect.com")
	otherMsg := createMessage(t, db, other, "survives")

	require.NoError(t, db.Like(ctx, other.ID, msg.ID))
	require.NoError(t, db.Like(ctx, user.ID, otherMsg.ID))
	require.NoError(t, db.Follow(ctx, user.ID, other.ID))
	require.NoError(t, db.Follow(ctx, other.ID, user.ID))

	require.NoError(t, db.DeleteUser(ctx, user.ID))

	_, err := db.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = db.GetMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	count, err := db.CountLikes(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	stats, err := db.GetUserStats(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, database.UserStats{Messages: 1}, stats)

	_, err = db.GetMessage(ctx, otherMsg.ID)
	assert.NoError(t, err)
}

func TestDeleteUserMissing(t *testing.T) {
	db := dbtest.New(t)
	assert.ErrorIs(t, db.DeleteUser(context.Background(), 42), database.ErrNotFound)
}

func TestDeleteMessageRemovesLikes(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	author := createUser(t, db, "author", "author@test.com")
	fan := createUser(t, db, "fan", "fan@test.com")
	msg := createMessage(t, db, author, "short lived")
	require.NoError(t, db.Like(ctx, fan.ID, msg.ID))

	require.NoError(t, db.DeleteMessage(ctx, msg.ID))

	count, err := db.CountLikes(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, db.DeleteMessage(ctx, msg.ID), database.ErrNotFound)
}

func TestFollowUnfollow(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	setup := createUser(t, db, "testuser1", "setup@setup.com")
	user := createUser(t, db, "testuser", "test@test.com")

	require.NoError(t, db.Follow(ctx, user.ID, setup.ID))
	require.NoError(t, db.Follow(ctx, user.ID, setup.ID))

	following, err := db.GetFollowing(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, setup.ID, following[0].ID)
	assert.Equal(t, setup.Username, following[0].Username)

	followers, err := db.GetFollowers(ctx, setup.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, user.ID, followers[0].ID)

	ids, err := db.GetFollowerIDs(ctx, setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID}, ids)

	require.NoError(t, db.Unfollow(ctx, user.ID, setup.ID))

	following, err = db.GetFollowing(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestUniqueUsernameAndEmail(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	createUser(t, db, "original_user", "test@original.com")

	err := db.SaveUser(ctx, &models.User{Username: "new_original_user", Email: "test@original.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, database.ErrDuplicateEntry)

	err = db.SaveUser(ctx, &models.User{Username: "original_user", Email: "new_test@original.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, database.ErrDuplicateEntry)

	// the failed inserts left nothing behind
	createUser(t, db, "fresh_user", "fresh@original.com")
}

func TestSearchUsers(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	createUser(t, db, "testuser", "test@test.com")
	createUser(t, db, "testuser2", "test2@test2.com")
	createUser(t, db, "someone", "someone@test.com")

	users, err := db.SearchUsers(ctx, "testuser")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "testuser", users[0].Username)
	assert.Equal(t, "testuser2", users[1].Username)

	all, err := db.SearchUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTimeline(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	me := createUser(t, db, "me", "me@test.com")
	friend := createUser(t, db, "friend", "friend@test.com")
	stranger := createUser(t, db, "stranger", "stranger@test.com")
	require.NoError(t, db.Follow(ctx, me.ID, friend.ID))

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, m := range []*models.Message{
		{Text: "mine", UserID: me.ID},
		{Text: "friend's", UserID: friend.ID},
		{Text: "stranger's", UserID: stranger.ID},
	} {
		m.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.SaveMessage(ctx, m))
	}

	timeline, err := db.GetTimeline(ctx, me.ID, 100)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, "friend's", timeline[0].Text)
	assert.Equal(t, "friend", timeline[0].User.Username)
	assert.Equal(t, "mine", timeline[1].Text)

	limited, err := db.GetTimeline(ctx, me.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTransactionRollsBack(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	createUser(t, db, "taken", "taken@test.com")

	err := db.Transaction(ctx, func(tx *database.Database) error {
		if err := tx.SaveUser(ctx, &models.User{Username: "first", Email: "first@test.com", PasswordHash: "x"}); err != nil {
			return err
		}
		return tx.SaveUser(ctx, &models.User{Username: "taken", Email: "second@test.com", PasswordHash: "x"})
	})
	require.ErrorIs(t, err, database.ErrDuplicateEntry)

	_, err = db.FindUserByUsername(ctx, "first")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
