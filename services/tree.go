package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/matrixlab/pulse/models"
	"github.com/matrixlab/pulse/utils"
)

// CommentNode is one comment in a serialized thread, with its active replies
// nested newest-first. Reply depth is unbounded, so assembly is strictly
// iterative: one query, a parent-id index, no recursion.
type CommentNode struct {
	models.Comment
	LikeCount  int64          `json:"like_count"`
	ReplyCount int            `json:"reply_count"`
	Replies    []*CommentNode `json:"replies"`
}

// CommentTree returns the active comment forest of a post, roots newest-first.
// Inactive comments are filtered per node, which also hides the subtrees
// hanging under them.
func (s *ThreadService) CommentTree(ctx context.Context, postID uint) ([]*CommentNode, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var comments []models.Comment
	if err := s.db.WithContext(ctx).
		Where("post_id = ? AND is_active = ?", postID, true).
		Order("created_at DESC, id DESC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return []*CommentNode{}, nil
	}

	if err := s.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	likeCounts, err := s.commentLikeCounts(ctx, comments)
	if err != nil {
		return nil, err
	}

	// Arena pass: one node per comment, indexed by id.
	nodes := make(map[uint]*CommentNode, len(comments))
	for i := range comments {
		c := comments[i]
		nodes[c.ID] = &CommentNode{
			Comment:   c,
			LikeCount: likeCounts[c.ID],
			Replies:   []*CommentNode{},
		}
	}

	// Link pass: attach each node to its parent, or to the root list. A node
	// whose parent is missing from the arena hangs under an inactive comment
	// and is dropped with its subtree.
	roots := []*CommentNode{}
	for i := range comments {
		node := nodes[comments[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
			parent.ReplyCount++
		}
	}
	return roots, nil
}

// attachAuthors fills in the User field of each comment with a single batched
// query.
func (s *ThreadService) attachAuthors(ctx context.Context, comments []models.Comment) error {
	userIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		userIDs = append(userIDs, c.UserID)
	}
	userIDs = utils.UniqueUint(userIDs)

	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users, userIDs).Error; err != nil {
		return err
	}
	userMap := make(map[uint]models.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	for i := range comments {
		if user, ok := userMap[comments[i].UserID]; ok {
			comments[i].User = user
		}
	}
	return nil
}

// commentLikeCounts aggregates like cardinality per comment id in one query.
func (s *ThreadService) commentLikeCounts(ctx context.Context, comments []models.Comment) (map[uint]int64, error) {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}

	type row struct {
		TargetID uint
		N        int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Select("target_id, COUNT(*) AS n").
		Where("target_type = ? AND target_id IN ?", models.LikeTargetComment, ids).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.TargetID] = r.N
	}
	return counts, nil
}
