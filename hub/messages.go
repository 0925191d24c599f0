package hub

import (
	"time"

	"github.com/matrixlab/pulse/models"
)

// Message type discriminators on the live channel.
const (
	MessageTypeGetNotifications = "get_notifications"
	MessageTypeNotifications    = "notifications"
	MessageTypeNewNotification  = "new_notification"
	MessageTypeChatMessage      = "chat_message"
)

// InboundMessage is what a client may send on a live connection.
type InboundMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// NotificationPayload is the wire shape of a notification, shared by
// snapshot replies and unsolicited pushes. Clients de-duplicate by id.
type NotificationPayload struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	CreatedDate string `json:"created_date"`
	IsRead      bool   `json:"is_read"`
}

// NotificationsSnapshot answers a get_notifications request with the current
// unread set, newest-first.
type NotificationsSnapshot struct {
	Type          string                `json:"type"`
	Notifications []NotificationPayload `json:"notifications"`
}

// NewNotificationPush is the unsolicited server-to-client delivery of a
// single freshly created notification.
type NewNotificationPush struct {
	Type         string              `json:"type"`
	Notification NotificationPayload `json:"notification"`
}

// ChatMessage is broadcast to every member of a chat room group.
type ChatMessage struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// PayloadFromModel converts a stored notification to its wire shape.
func PayloadFromModel(n *models.Notification) NotificationPayload {
	return NotificationPayload{
		ID:          n.ID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.NotificationType,
		CreatedDate: n.CreatedAt.Format(time.RFC3339),
		IsRead:      n.IsRead,
	}
}

// SnapshotFromModels builds a snapshot reply from stored notifications.
func SnapshotFromModels(list []models.Notification) NotificationsSnapshot {
	payloads := make([]NotificationPayload, 0, len(list))
	for i := range list {
		payloads = append(payloads, PayloadFromModel(&list[i]))
	}
	return NotificationsSnapshot{Type: MessageTypeNotifications, Notifications: payloads}
}
