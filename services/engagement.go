package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/matrixlab/pulse/models"
)

// LikeResult is the post-mutation state of a like toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"like_count"`
}

// EngagementService owns the like relation between users and posts/comments.
type EngagementService struct {
	db   *gorm.DB
	gate *ModerationService
}

// NewEngagementService creates an EngagementService.
func NewEngagementService(db *gorm.DB, gate *ModerationService) *EngagementService {
	return &EngagementService{db: db, gate: gate}
}

// ToggleLike flips the (actor, target) like tuple: removes it when present,
// inserts it when absent. The existence check and the mutation are one atomic
// unit; a duplicate-key collision with a concurrent toggle is retried once,
// which is safe because the operation is idempotent by construction.
func (s *EngagementService) ToggleLike(ctx context.Context, actorID uint, targetType string, targetID uint) (LikeResult, error) {
	if err := s.gate.Check(ctx, actorID); err != nil {
		return LikeResult{}, err
	}
	if err := s.checkTarget(ctx, targetType, targetID); err != nil {
		return LikeResult{}, err
	}

	result, err := s.toggleOnce(ctx, actorID, targetType, targetID)
	if errors.Is(err, ErrConflict) {
		result, err = s.toggleOnce(ctx, actorID, targetType, targetID)
	}
	return result, err
}

func (s *EngagementService) checkTarget(ctx context.Context, targetType string, targetID uint) error {
	var err error
	switch targetType {
	case models.LikeTargetPost:
		err = s.db.WithContext(ctx).Select("id").First(&models.Post{}, targetID).Error
	case models.LikeTargetComment:
		err = s.db.WithContext(ctx).Select("id").First(&models.Comment{}, targetID).Error
	default:
		return &ValidationError{Reason: "unknown like target type"}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// toggleOnce performs one delete-first toggle attempt. Deleting before
// inserting makes the decision and the mutation a single conditional write:
// whichever concurrent request inserts second hits the composite unique index
// and surfaces ErrConflict instead of a duplicate tuple.
func (s *EngagementService) toggleOnce(ctx context.Context, actorID uint, targetType string, targetID uint) (LikeResult, error) {
	var out LikeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", actorID, targetType, targetID).
			Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			like := models.Like{UserID: actorID, TargetType: targetType, TargetID: targetID}
			if err := tx.Create(&like).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrConflict
				}
				return err
			}
			out.Liked = true
		}

		return tx.Model(&models.Like{}).
			Where("target_type = ? AND target_id = ?", targetType, targetID).
			Count(&out.Count).Error
	})
	if err != nil {
		return LikeResult{}, err
	}
	return out, nil
}

// LikeCount returns the current like cardinality for a target.
func (s *EngagementService) LikeCount(ctx context.Context, targetType string, targetID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&n).Error
	return n, err
}
