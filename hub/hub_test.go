package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matrixlab/pulse/models"
)

func newTestHub() *Hub {
	return NewHub(nil, zap.NewNop().Sugar())
}

// receive pops one queued payload without blocking the test forever.
func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.send:
		return payload
	case <-time.After(time.Second):
		t.Fatal("no payload queued")
		return nil
	}
}

func TestGroupNames(t *testing.T) {
	assert.Equal(t, "notifications_7", NotificationGroup(7))
	assert.Equal(t, "chat_lobby", ChatGroup("lobby"))
}

func TestSubscribeUnsubscribe(t *testing.T) {
	h := newTestHub()
	c := h.NewClient(nil, 1, "neo", nil)

	h.Subscribe("chat_lobby", c)
	h.Subscribe("chat_lobby", c)
	assert.Equal(t, 1, h.GroupSize("chat_lobby"))

	h.Unsubscribe("chat_lobby", c)
	assert.Equal(t, 0, h.GroupSize("chat_lobby"))

	// Unsubscribing an absent member stays a no-op.
	h.Unsubscribe("chat_lobby", c)
	h.Unsubscribe("never_joined", c)
	assert.Equal(t, 0, h.GroupSize("never_joined"))
}

func TestBroadcastReachesGroupMembersOnly(t *testing.T) {
	h := newTestHub()
	member1 := h.NewClient(nil, 1, "neo", nil)
	member2 := h.NewClient(nil, 2, "trinity", nil)
	outsider := h.NewClient(nil, 3, "smith", nil)

	h.Subscribe("chat_lobby", member1)
	h.Subscribe("chat_lobby", member2)
	h.Subscribe("chat_construct", outsider)

	h.Broadcast("chat_lobby", ChatMessage{Type: MessageTypeChatMessage, Message: "hello", Username: "neo"})

	for _, c := range []*Client{member1, member2} {
		var got ChatMessage
		require.NoError(t, json.Unmarshal(receive(t, c), &got))
		assert.Equal(t, MessageTypeChatMessage, got.Type)
		assert.Equal(t, "hello", got.Message)
		assert.Equal(t, "neo", got.Username)
	}
	assert.Empty(t, outsider.send)
}

func TestPushNotificationWireShape(t *testing.T) {
	h := newTestHub()
	c := h.NewClient(nil, 42, "neo", nil)
	h.Subscribe(NotificationGroup(42), c)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	n := &models.Notification{
		UserID:           42,
		NotificationType: models.NotificationTypeComment,
		Title:            "New Comment on Your Post",
		Message:          `trinity commented on your post "Follow the White Rabbit"`,
	}
	n.ID = 9
	n.CreatedAt = created

	h.PushNotification(n)

	var got NewNotificationPush
	require.NoError(t, json.Unmarshal(receive(t, c), &got))
	assert.Equal(t, MessageTypeNewNotification, got.Type)
	assert.Equal(t, uint(9), got.Notification.ID)
	assert.Equal(t, "New Comment on Your Post", got.Notification.Title)
	assert.Equal(t, models.NotificationTypeComment, got.Notification.Type)
	assert.Equal(t, created.Format(time.RFC3339), got.Notification.CreatedDate)
	assert.False(t, got.Notification.IsRead)
}

func TestSlowClientIsDropped(t *testing.T) {
	h := newTestHub()
	slow := h.NewClient(nil, 1, "neo", nil)
	healthy := h.NewClient(nil, 2, "trinity", nil)
	h.Subscribe("chat_lobby", slow)
	h.Subscribe("chat_lobby", healthy)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, slow.trySend([]byte("backlog")))
	}

	h.Broadcast("chat_lobby", ChatMessage{Type: MessageTypeChatMessage, Message: "one too many"})

	// The saturated member is detached, the healthy one still receives.
	assert.Equal(t, 1, h.GroupSize("chat_lobby"))
	assert.Empty(t, slow.groups)
	require.NotNil(t, receive(t, healthy))

	// Its send channel is closed, so later broadcasts cannot panic the hub.
	h.Broadcast("chat_lobby", ChatMessage{Type: MessageTypeChatMessage, Message: "still fine"})
	require.NotNil(t, receive(t, healthy))
}

func TestDetachIsIdempotent(t *testing.T) {
	h := newTestHub()
	c := h.NewClient(nil, 1, "neo", nil)
	h.Subscribe(NotificationGroup(1), c)
	h.Subscribe("chat_lobby", c)

	h.detach(c)
	h.detach(c)

	assert.Equal(t, 0, h.GroupSize(NotificationGroup(1)))
	assert.Equal(t, 0, h.GroupSize("chat_lobby"))
}

func TestSnapshotFromModels(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := models.Notification{Title: "New Comment on Your Post", Message: "first"}
	a.ID = 1
	a.CreatedAt = created
	b := models.Notification{Title: "New Comment on Your Post", Message: "second"}
	b.ID = 2
	b.CreatedAt = created.Add(time.Minute)

	snap := SnapshotFromModels([]models.Notification{b, a})
	assert.Equal(t, MessageTypeNotifications, snap.Type)
	require.Len(t, snap.Notifications, 2)
	assert.Equal(t, uint(2), snap.Notifications[0].ID)
	assert.Equal(t, uint(1), snap.Notifications[1].ID)

	assert.Empty(t, SnapshotFromModels(nil).Notifications)
}
