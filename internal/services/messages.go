package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/models"
)

// Notifier pushes a freshly posted message to connected users.
type Notifier interface {
	PublishWarble(recipients []uint, message *models.Message)
}

type MessageService struct {
	db       *database.Database
	notifier Notifier
	log      logrus.FieldLogger
}

func NewMessageService(db *database.Database, notifier Notifier, log logrus.FieldLogger) *MessageService {
	return &MessageService{db: db, notifier: notifier, log: log}
}

// Post stores a message by author and fans it out to the author and the
// author's followers. A failed fan-out is logged, the message stays.
func (s *MessageService) Post(ctx context.Context, author *models.User, text string) (*models.Message, error) {
	message := &models.Message{
		Text:   text,
		UserID: author.ID,
	}

	if err := s.db.SaveMessage(ctx, message); err != nil {
		return nil, err
	}
	message.User = *author

	if s.notifier == nil {
		return message, nil
	}

	followerIDs, err := s.db.GetFollowerIDs(ctx, author.ID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", author.ID).Warn("could not load followers for live feed")
		return message, nil
	}

	s.notifier.PublishWarble(append(followerIDs, author.ID), message)
	return message, nil
}
