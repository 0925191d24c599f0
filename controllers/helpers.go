package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/matrixlab/pulse/config"
	"github.com/matrixlab/pulse/middleware"
	"github.com/matrixlab/pulse/services"
	"github.com/matrixlab/pulse/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func getUsername(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return ""
	}
	name, _ := value.(string)
	return name
}

// isModerator checks the authenticated username against the configured
// moderator list.
func isModerator(ctx *gin.Context) bool {
	uname := getUsername(ctx)
	if uname == "" {
		return false
	}
	cfg := config.Get()
	for _, u := range cfg.ModeratorUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps the service error taxonomy onto the uniform JSON
// envelope. code is the handler's business code for the 500 fallback.
func respondServiceError(ctx *gin.Context, err error, code int, fallback string) {
	var ve *services.ValidationError
	var pe *services.PermissionDeniedError
	switch {
	case errors.As(err, &ve):
		utils.Error(ctx, http.StatusBadRequest, 40030, ve.Reason)
	case errors.As(err, &pe):
		utils.Error(ctx, http.StatusForbidden, 40330, pe.Reason)
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40430, "resource not found")
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40930, "conflicting concurrent update, please retry")
	default:
		utils.Error(ctx, http.StatusInternalServerError, code, fallback)
	}
}
