package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixlab/pulse/models"
)

func TestToggleLikeInvolution(t *testing.T) {
	db := newTestDB(t)
	gate := NewModerationService(db)
	ledger := NewEngagementService(db, gate)
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	trinity := seedUser(t, db, "trinity")
	post := seedPost(t, db, neo, "Follow the White Rabbit")

	res, err := ledger.ToggleLike(ctx, trinity.ID, models.LikeTargetPost, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.EqualValues(t, 1, res.Count)

	res, err = ledger.ToggleLike(ctx, trinity.ID, models.LikeTargetPost, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.EqualValues(t, 0, res.Count)

	// Back where we started: at most one like row ever existed.
	var rows int64
	require.NoError(t, db.Model(&models.Like{}).Count(&rows).Error)
	assert.EqualValues(t, 0, rows)

	res, err = ledger.ToggleLike(ctx, trinity.ID, models.LikeTargetPost, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.EqualValues(t, 1, res.Count)
}

func TestToggleLikeCommentTarget(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	threads, _, _ := newThreadStack(t, db, cfg)
	gate := NewModerationService(db)
	ledger := NewEngagementService(db, gate)
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	trinity := seedUser(t, db, "trinity")
	post := seedPost(t, db, neo, "Follow the White Rabbit")
	comment, err := threads.CreateComment(ctx, post.ID, trinity.ID, "dodge this", nil)
	require.NoError(t, err)

	res, err := ledger.ToggleLike(ctx, neo.ID, models.LikeTargetComment, comment.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.EqualValues(t, 1, res.Count)

	// The post's own count is untouched by comment likes.
	count, err := ledger.LikeCount(ctx, models.LikeTargetPost, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestToggleLikeCountsPerActor(t *testing.T) {
	db := newTestDB(t)
	gate := NewModerationService(db)
	ledger := NewEngagementService(db, gate)
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	trinity := seedUser(t, db, "trinity")
	tank := seedUser(t, db, "tank")
	post := seedPost(t, db, neo, "Follow the White Rabbit")

	for _, actor := range []models.User{neo, trinity, tank} {
		_, err := ledger.ToggleLike(ctx, actor.ID, models.LikeTargetPost, post.ID)
		require.NoError(t, err)
	}

	count, err := ledger.LikeCount(ctx, models.LikeTargetPost, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	res, err := ledger.ToggleLike(ctx, trinity.ID, models.LikeTargetPost, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.EqualValues(t, 2, res.Count)
}

func TestToggleLikeUnknownTarget(t *testing.T) {
	db := newTestDB(t)
	gate := NewModerationService(db)
	ledger := NewEngagementService(db, gate)
	ctx := context.Background()

	neo := seedUser(t, db, "neo")

	_, err := ledger.ToggleLike(ctx, neo.ID, models.LikeTargetPost, 424242)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ledger.ToggleLike(ctx, neo.ID, models.LikeTargetComment, 424242)
	assert.ErrorIs(t, err, ErrNotFound)

	var verr *ValidationError
	_, err = ledger.ToggleLike(ctx, neo.ID, "reaction", 1)
	assert.ErrorAs(t, err, &verr)
}

func TestToggleLikeBannedActor(t *testing.T) {
	db := newTestDB(t)
	gate := NewModerationService(db)
	ledger := NewEngagementService(db, gate)
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	post := seedPost(t, db, neo, "Follow the White Rabbit")
	future := time.Now().Add(time.Hour)
	smith := seedBannedUser(t, db, "smith", "hostile takeover", &future)

	var perr *PermissionDeniedError
	_, err := ledger.ToggleLike(ctx, smith.ID, models.LikeTargetPost, post.ID)
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "hostile takeover")

	var rows int64
	require.NoError(t, db.Model(&models.Like{}).Count(&rows).Error)
	assert.EqualValues(t, 0, rows)
}

func TestToggleLikeNeverNotifies(t *testing.T) {
	db := newTestDB(t)
	gate := NewModerationService(db)
	ledger := NewEngagementService(db, gate)
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	trinity := seedUser(t, db, "trinity")
	post := seedPost(t, db, neo, "Follow the White Rabbit")

	_, err := ledger.ToggleLike(ctx, trinity.ID, models.LikeTargetPost, post.ID)
	require.NoError(t, err)

	var rows int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&rows).Error)
	assert.EqualValues(t, 0, rows)
}
