package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/matrixlab/pulse/config"
	"github.com/matrixlab/pulse/models"
)

// Pusher delivers a freshly stored notification to live subscribers.
// Delivery is best-effort: the durable row is the source of truth.
type Pusher interface {
	PushNotification(n *models.Notification)
}

// NotificationService derives notifications from engagement events and serves
// snapshot queries over the durable store.
type NotificationService struct {
	db     *gorm.DB
	cfg    config.AppConfig
	pusher Pusher
}

// NewNotificationService creates a NotificationService. pusher may be nil
// when live delivery is not wired (tests, batch tools).
func NewNotificationService(db *gorm.DB, cfg config.AppConfig, pusher Pusher) *NotificationService {
	return &NotificationService{db: db, cfg: cfg, pusher: pusher}
}

// OnCommentCreated implements CommentObserver. At most one notification is
// produced per event: replies never notify, and authors are not notified
// about their own comments. The row is written inside the caller's
// transaction; the push runs after commit.
func (s *NotificationService) OnCommentCreated(tx *gorm.DB, ev CommentCreated) (func(), error) {
	if ev.IsReply {
		return nil, nil
	}
	if ev.Post.UserID == ev.Comment.UserID {
		return nil, nil
	}

	n := &models.Notification{
		UserID:           ev.Post.UserID,
		NotificationType: models.NotificationTypeComment,
		Title:            "New Comment on Your Post",
		Message:          fmt.Sprintf("%s commented on your post \"%s\"", ev.Comment.User.Username, ev.Post.Title),
		RelatedPostID:    &ev.Post.ID,
		RelatedCommentID: &ev.Comment.ID,
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}

	return func() {
		if s.pusher != nil {
			s.pusher.PushNotification(n)
		}
	}, nil
}

// ListUnread returns the recipient's unread notifications newest-first,
// bounded by limit (the configured page size when limit is not positive).
func (s *NotificationService) ListUnread(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = s.cfg.NotificationPageSize
	}
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead flips a notification's read flag. Only the recipient may mark
// their own notifications.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	var n models.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error
}
