package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/matrixlab/pulse/models"
)

// ModerationService decides whether an actor may perform a mutating
// engagement action. It has no side effects of its own; the stored ban flag
// is corrected only by the explicit SweepExpiredBans job.
type ModerationService struct {
	db *gorm.DB
}

// NewModerationService creates a ModerationService backed by the given store.
func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db}
}

// Check returns nil when the actor may mutate, or a PermissionDeniedError
// when the actor is unknown or currently banned. Expiry is accounted for at
// read time.
func (m *ModerationService) Check(ctx context.Context, actorID uint) error {
	var user models.User
	if err := m.db.WithContext(ctx).First(&user, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PermissionDeniedError{Reason: "unknown account"}
		}
		return err
	}

	if IsEffectivelyBanned(&user, time.Now()) {
		reason := user.BanReason
		if reason == "" {
			reason = "account is banned"
		}
		return &PermissionDeniedError{Reason: reason}
	}
	return nil
}

// IsEffectivelyBanned evaluates the ban state of a user at the given instant.
// A stored banned flag whose expiry has passed counts as not banned.
func IsEffectivelyBanned(u *models.User, now time.Time) bool {
	if !u.IsBanned {
		return false
	}
	if u.BanExpires != nil && now.After(*u.BanExpires) {
		return false
	}
	return true
}

// SweepExpiredBans clears the stored banned flag for accounts whose ban has
// expired. Idempotent; intended to run periodically from main.
func (m *ModerationService) SweepExpiredBans(ctx context.Context) (int64, error) {
	res := m.db.WithContext(ctx).Model(&models.User{}).
		Where("is_banned = ? AND ban_expires IS NOT NULL AND ban_expires <= ?", true, time.Now()).
		Updates(map[string]interface{}{"is_banned": false, "ban_reason": ""})
	return res.RowsAffected, res.Error
}
