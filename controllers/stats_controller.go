package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matrixlab/pulse/models"
	"github.com/matrixlab/pulse/services"
	"github.com/matrixlab/pulse/utils"
)

// StatsController serves read-only engagement aggregates.
type StatsController struct {
	threads *services.ThreadService
	ledger  *services.EngagementService
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(threads *services.ThreadService, ledger *services.EngagementService) *StatsController {
	return &StatsController{threads: threads, ledger: ledger}
}

// GetPostStats returns the active comment count and like cardinality of a post.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid post id")
		return
	}

	comments, err := s.threads.CountActiveComments(ctx.Request.Context(), postID)
	if err != nil {
		respondServiceError(ctx, err, 50050, "failed to count comments")
		return
	}
	likes, err := s.ledger.LikeCount(ctx.Request.Context(), models.LikeTargetPost, postID)
	if err != nil {
		respondServiceError(ctx, err, 50051, "failed to count likes")
		return
	}

	utils.Success(ctx, gin.H{
		"post_id":       postID,
		"comment_count": comments,
		"like_count":    likes,
	})
}

// GetCommentStats returns the active direct reply count and like cardinality
// of a comment.
func (s *StatsController) GetCommentStats(ctx *gin.Context) {
	commentID, ok := parseID(ctx.Param("commentId"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid comment id")
		return
	}

	replies, err := s.threads.CountActiveReplies(ctx.Request.Context(), commentID)
	if err != nil {
		respondServiceError(ctx, err, 50052, "failed to count replies")
		return
	}
	likes, err := s.ledger.LikeCount(ctx.Request.Context(), models.LikeTargetComment, commentID)
	if err != nil {
		respondServiceError(ctx, err, 50053, "failed to count likes")
		return
	}

	utils.Success(ctx, gin.H{
		"comment_id":  commentID,
		"reply_count": replies,
		"like_count":  likes,
	})
}
