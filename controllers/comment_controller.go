package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matrixlab/pulse/services"
	"github.com/matrixlab/pulse/utils"
)

// CommentController manages the comment tree of posts.
type CommentController struct {
	threads *services.ThreadService
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(threads *services.ThreadService) *CommentController {
	return &CommentController{threads: threads}
}

// CreateComment allows authenticated users to comment on a post. A parent_id
// in the payload nests the comment as a reply within the same thread.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content  string `json:"content" binding:"required"`
		ParentID *uint  `json:"parent_id"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid post id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment, err := c.threads.CreateComment(ctx.Request.Context(), postID, userID, req.Content, req.ParentID)
	if err != nil {
		respondServiceError(ctx, err, 50020, "failed to create comment")
		return
	}

	// Invalidate the cached thread on new comment
	utils.InvalidateByPrefix(threadCacheKey(ctx.Param("id")))

	utils.Success(ctx, gin.H{"comment": comment})
}

// CreateReply nests a new comment under an existing one; the post is derived
// from the parent.
func (c *CommentController) CreateReply(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	parentID, ok := parseID(ctx.Param("commentId"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid comment id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	reply, err := c.threads.CreateReply(ctx.Request.Context(), parentID, userID, req.Content)
	if err != nil {
		respondServiceError(ctx, err, 50021, "failed to create reply")
		return
	}

	utils.InvalidateByPrefix(threadCacheKey(strconv.Itoa(int(reply.PostID))))

	utils.Success(ctx, gin.H{"comment": reply})
}

// DeactivateComment soft-deletes a comment. Only the author or a moderator
// may deactivate; the row and its descendants stay in storage and are hidden
// at read time.
func (c *CommentController) DeactivateComment(ctx *gin.Context) {
	commentID, ok := parseID(ctx.Param("commentId"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid comment id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	if err := c.threads.Deactivate(ctx.Request.Context(), commentID, userID, isModerator(ctx)); err != nil {
		respondServiceError(ctx, err, 50022, "failed to deactivate comment")
		return
	}

	// The thread shape changed for every cached post page
	utils.InvalidateByPrefix("cache:post:comments:")

	utils.Success(ctx, gin.H{"message": "comment deactivated"})
}

// ListComments returns a post's active comment forest, roots newest-first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid post id")
		return
	}

	cacheKey := threadCacheKey(ctx.Param("id"))
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	tree, err := c.threads.CommentTree(ctx.Request.Context(), postID)
	if err != nil {
		respondServiceError(ctx, err, 50023, "failed to load comments")
		return
	}

	payload := gin.H{"comments": tree}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

func threadCacheKey(postID string) string {
	return "cache:post:comments:" + postID
}
