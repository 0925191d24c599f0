package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matrixlab/pulse/models"
	"github.com/matrixlab/pulse/services"
	"github.com/matrixlab/pulse/utils"
)

// LikeController exposes the idempotent like toggle for posts and comments.
type LikeController struct {
	ledger *services.EngagementService
}

// NewLikeController creates a new LikeController instance.
func NewLikeController(ledger *services.EngagementService) *LikeController {
	return &LikeController{ledger: ledger}
}

// TogglePostLike flips the caller's like on a post and returns the
// post-mutation state.
func (l *LikeController) TogglePostLike(ctx *gin.Context) {
	l.toggle(ctx, models.LikeTargetPost, ctx.Param("id"))
}

// ToggleCommentLike flips the caller's like on a comment.
func (l *LikeController) ToggleCommentLike(ctx *gin.Context) {
	l.toggle(ctx, models.LikeTargetComment, ctx.Param("commentId"))
}

func (l *LikeController) toggle(ctx *gin.Context, targetType, rawID string) {
	targetID, ok := parseID(rawID)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid target id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := l.ledger.ToggleLike(ctx.Request.Context(), userID, targetType, targetID)
	if err != nil {
		respondServiceError(ctx, err, 50040, "failed to toggle like")
		return
	}

	if targetType == models.LikeTargetComment {
		// Cached threads embed per-comment like counts
		utils.InvalidateByPrefix("cache:post:comments:")
	}

	utils.Success(ctx, result)
}
