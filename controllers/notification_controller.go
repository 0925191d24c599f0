package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/matrixlab/pulse/config"
	"github.com/matrixlab/pulse/hub"
	"github.com/matrixlab/pulse/services"
	"github.com/matrixlab/pulse/utils"
)

var errMissingToken = errors.New("missing or revoked token")

// NotificationController serves notification snapshots over HTTP and the
// live channel over websocket.
type NotificationController struct {
	notifications *services.NotificationService
	presence      *hub.Hub
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(notifications *services.NotificationService, presence *hub.Hub) *NotificationController {
	return &NotificationController{notifications: notifications, presence: presence}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		cfg := config.Get()
		if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, allowed := range cfg.AllowedOrigins {
			if strings.EqualFold(origin, allowed) {
				return true
			}
		}
		return false
	},
}

// ListUnread returns the caller's unread notifications, newest-first.
func (n *NotificationController) ListUnread(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	list, err := n.notifications.ListUnread(ctx.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(ctx, err, 50060, "failed to list notifications")
		return
	}

	utils.Success(ctx, gin.H{"notifications": list})
}

// MarkRead flips one of the caller's notifications to read.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	notificationID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid notification id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := n.notifications.MarkRead(ctx.Request.Context(), userID, notificationID); err != nil {
		respondServiceError(ctx, err, 50061, "failed to mark notification read")
		return
	}

	utils.Success(ctx, gin.H{"success": true})
}

// NotificationSocket upgrades the request to a websocket subscribed to the
// caller's own notification group. The connection must authenticate; it only
// ever joins its own user's group.
func (n *NotificationController) NotificationSocket(ctx *gin.Context) {
	claims, err := wsClaims(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}

	client := n.presence.NewClient(conn, claims.UserID, claims.Username, func(c *hub.Client, msg hub.InboundMessage) {
		if msg.Type != hub.MessageTypeGetNotifications {
			return
		}
		list, err := n.notifications.ListUnread(ctx.Request.Context(), c.UserID, 0)
		if err != nil {
			utils.Sugar.Warnw("notification snapshot failed", "conn", c.ID(), "err", err)
			return
		}
		c.Send(hub.SnapshotFromModels(list))
	})

	n.presence.Subscribe(hub.NotificationGroup(claims.UserID), client)
	go client.WritePump()
	client.ReadPump()
}

// ChatSocket joins a chat room group. Unauthenticated connections
// participate as "Anonymous".
func (n *NotificationController) ChatSocket(ctx *gin.Context) {
	room := strings.TrimSpace(ctx.Param("room"))
	if room == "" {
		utils.Error(ctx, http.StatusBadRequest, 40061, "missing room name")
		return
	}

	username := "Anonymous"
	var userID uint
	if claims, err := wsClaims(ctx); err == nil {
		username = claims.Username
		userID = claims.UserID
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		return
	}

	group := hub.ChatGroup(room)
	client := n.presence.NewClient(conn, userID, username, func(c *hub.Client, msg hub.InboundMessage) {
		if msg.Type != hub.MessageTypeChatMessage || msg.Message == "" {
			return
		}
		n.presence.Broadcast(group, hub.ChatMessage{
			Type:     hub.MessageTypeChatMessage,
			Message:  utils.Sanitize(msg.Message),
			Username: c.Username,
		})
	})

	n.presence.Subscribe(group, client)
	go client.WritePump()
	client.ReadPump()
}

// wsClaims authenticates a websocket request from the Authorization header
// or, for browser clients that cannot set headers on a websocket, a token
// query parameter.
func wsClaims(ctx *gin.Context) (*utils.Claims, error) {
	token := ctx.Query("token")
	if token == "" {
		header := ctx.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
		}
	}
	if token == "" || utils.IsTokenBlacklisted(token) {
		return nil, errMissingToken
	}
	return utils.ParseToken(token)
}
