package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixlab/pulse/models"
)

func TestCommentTreeShape(t *testing.T) {
	db := newTestDB(t)
	threads, _, _ := newThreadStack(t, db, testConfig())
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	morpheus := seedUser(t, db, "morpheus")
	post := seedPost(t, db, neo, "Red Pill")

	first, err := threads.CreateComment(ctx, post.ID, morpheus.ID, "first root", nil)
	require.NoError(t, err)
	second, err := threads.CreateComment(ctx, post.ID, neo.ID, "second root", nil)
	require.NoError(t, err)

	reply, err := threads.CreateReply(ctx, first.ID, neo.ID, "reply to first")
	require.NoError(t, err)
	nested, err := threads.CreateReply(ctx, reply.ID, morpheus.ID, "deeply nested")
	require.NoError(t, err)

	tree, err := threads.CommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	// Roots come newest-first.
	assert.Equal(t, second.ID, tree[0].ID)
	assert.Equal(t, first.ID, tree[1].ID)

	firstNode := tree[1]
	require.Len(t, firstNode.Replies, 1)
	assert.Equal(t, 1, firstNode.ReplyCount)
	assert.Equal(t, reply.ID, firstNode.Replies[0].ID)
	require.Len(t, firstNode.Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, firstNode.Replies[0].Replies[0].ID)

	// Authors are attached in one batched pass.
	assert.Equal(t, "morpheus", firstNode.User.Username)
	assert.Equal(t, "neo", firstNode.Replies[0].User.Username)
}

func TestCommentTreeHidesInactiveSubtrees(t *testing.T) {
	db := newTestDB(t)
	threads, _, _ := newThreadStack(t, db, testConfig())
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	morpheus := seedUser(t, db, "morpheus")
	post := seedPost(t, db, neo, "Red Pill")

	root, err := threads.CreateComment(ctx, post.ID, morpheus.ID, "root", nil)
	require.NoError(t, err)
	_, err = threads.CreateReply(ctx, root.ID, neo.ID, "child of removed root")
	require.NoError(t, err)

	keep, err := threads.CreateComment(ctx, post.ID, neo.ID, "surviving root", nil)
	require.NoError(t, err)

	require.NoError(t, threads.Deactivate(ctx, root.ID, morpheus.ID, false))

	tree, err := threads.CommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, keep.ID, tree[0].ID)
	assert.Empty(t, tree[0].Replies)
}

func TestCommentTreeLikeCounts(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	threads, _, _ := newThreadStack(t, db, cfg)
	gate := NewModerationService(db)
	ledger := NewEngagementService(db, gate)
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	morpheus := seedUser(t, db, "morpheus")
	post := seedPost(t, db, neo, "Red Pill")

	root, err := threads.CreateComment(ctx, post.ID, morpheus.ID, "likeable", nil)
	require.NoError(t, err)

	_, err = ledger.ToggleLike(ctx, neo.ID, models.LikeTargetComment, root.ID)
	require.NoError(t, err)
	_, err = ledger.ToggleLike(ctx, morpheus.ID, models.LikeTargetComment, root.ID)
	require.NoError(t, err)

	tree, err := threads.CommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.EqualValues(t, 2, tree[0].LikeCount)
}

func TestCommentTreeDeepThread(t *testing.T) {
	db := newTestDB(t)
	threads, _, _ := newThreadStack(t, db, testConfig())
	ctx := context.Background()

	neo := seedUser(t, db, "neo")
	morpheus := seedUser(t, db, "morpheus")
	post := seedPost(t, db, neo, "Red Pill")

	// A reply chain far deeper than any recursive walker should be asked to
	// survive.
	const depth = 500
	parent, err := threads.CreateComment(ctx, post.ID, morpheus.ID, "level 0", nil)
	require.NoError(t, err)
	for i := 1; i < depth; i++ {
		parent, err = threads.CreateReply(ctx, parent.ID, morpheus.ID, "nested")
		require.NoError(t, err)
	}

	tree, err := threads.CommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)

	node := tree[0]
	levels := 1
	for len(node.Replies) > 0 {
		require.Len(t, node.Replies, 1)
		node = node.Replies[0]
		levels++
	}
	assert.Equal(t, depth, levels)
}

func TestCommentTreeMissingPost(t *testing.T) {
	db := newTestDB(t)
	threads, _, _ := newThreadStack(t, db, testConfig())

	_, err := threads.CommentTree(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrNotFound)
}
