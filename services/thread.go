package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/matrixlab/pulse/config"
	"github.com/matrixlab/pulse/models"
	"github.com/matrixlab/pulse/utils"
)

// CommentCreated is emitted by ThreadService after a comment row has been
// written. Observers run inside the same transaction, so anything they
// persist commits atomically with the comment.
type CommentCreated struct {
	Post    *models.Post
	Comment *models.Comment
	IsReply bool
}

// CommentObserver consumes CommentCreated events synchronously. The returned
// callback, if any, is invoked once the transaction has committed.
type CommentObserver interface {
	OnCommentCreated(tx *gorm.DB, ev CommentCreated) (afterCommit func(), err error)
}

// ThreadService owns comment creation, soft-deactivation and parent/child
// integrity for a post's comment tree.
type ThreadService struct {
	db        *gorm.DB
	cfg       config.AppConfig
	gate      *ModerationService
	observers []CommentObserver
}

// NewThreadService creates a ThreadService. Observers are notified of every
// comment creation in registration order.
func NewThreadService(db *gorm.DB, cfg config.AppConfig, gate *ModerationService, observers ...CommentObserver) *ThreadService {
	return &ThreadService{db: db, cfg: cfg, gate: gate, observers: observers}
}

// CreateComment persists a new comment on a post, optionally nested under a
// parent comment on the same post. A nil parentID creates a top-level comment.
func (s *ThreadService) CreateComment(ctx context.Context, postID, authorID uint, body string, parentID *uint) (*models.Comment, error) {
	if err := s.gate.Check(ctx, authorID); err != nil {
		return nil, err
	}
	if !s.cfg.AllowComments {
		return nil, &ValidationError{Reason: "comments are disabled"}
	}

	content := strings.TrimSpace(utils.Sanitize(body))
	if content == "" {
		return nil, &ValidationError{Reason: "comment body cannot be empty"}
	}

	var comment models.Comment
	var afterCommit []func()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !post.IsPublished() {
			return &ValidationError{Reason: "post does not accept comments"}
		}

		if parentID != nil {
			var parent models.Comment
			if err := tx.First(&parent, *parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if parent.PostID != postID {
				return &ValidationError{Reason: "cross-thread parent"}
			}
			if !parent.IsActive {
				return &ValidationError{Reason: "parent comment is inactive"}
			}
		}

		var author models.User
		if err := tx.First(&author, authorID).Error; err != nil {
			return err
		}

		comment = models.Comment{
			PostID:   postID,
			UserID:   authorID,
			ParentID: parentID,
			Content:  content,
			IsActive: true,
			User:     author,
		}
		if err := tx.Omit("User").Create(&comment).Error; err != nil {
			return err
		}

		ev := CommentCreated{Post: &post, Comment: &comment, IsReply: parentID != nil}
		for _, o := range s.observers {
			after, err := o.OnCommentCreated(tx, ev)
			if err != nil {
				return err
			}
			if after != nil {
				afterCommit = append(afterCommit, after)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The comment and any derived notification are durable; live delivery is
	// best-effort from here on.
	for _, fn := range afterCommit {
		fn()
	}
	return &comment, nil
}

// CreateReply nests a new comment under an existing one. The post is derived
// from the parent, so a reply can never land in a different thread.
func (s *ThreadService) CreateReply(ctx context.Context, parentID, authorID uint, body string) (*models.Comment, error) {
	var parent models.Comment
	if err := s.db.WithContext(ctx).First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.CreateComment(ctx, parent.PostID, authorID, body, &parent.ID)
}

// Deactivate flips a comment's active flag off. Only the comment's author or
// a moderator may deactivate; descendants are left untouched and are hidden
// at read time.
func (s *ThreadService) Deactivate(ctx context.Context, commentID, actorID uint, isModerator bool) error {
	if err := s.gate.Check(ctx, actorID); err != nil {
		return err
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if comment.UserID != actorID && !isModerator {
		return &PermissionDeniedError{Reason: "you can only deactivate your own comment"}
	}

	return s.db.WithContext(ctx).Model(&comment).Update("is_active", false).Error
}

// CountActiveComments returns the number of active comments on a post,
// replies included.
func (s *ThreadService) CountActiveComments(ctx context.Context, postID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND is_active = ?", postID, true).Count(&n).Error
	return n, err
}

// CountActiveReplies returns the number of active direct replies to a comment.
func (s *ThreadService) CountActiveReplies(ctx context.Context, commentID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("parent_id = ? AND is_active = ?", commentID, true).Count(&n).Error
	return n, err
}
