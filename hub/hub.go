package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matrixlab/pulse/models"
)

// groupChannelPrefix namespaces the Redis Pub/Sub channels carrying group
// broadcasts between processes.
const groupChannelPrefix = "pulse:group:"

// NotificationGroup names the subscription group of one recipient user.
func NotificationGroup(userID uint) string {
	return fmt.Sprintf("notifications_%d", userID)
}

// ChatGroup names the subscription group of one chat room.
func ChatGroup(room string) string {
	return "chat_" + room
}

// Hub maintains group membership for live connections and fans broadcasts
// out to every member. Membership is ephemeral and never authoritative:
// losing it only delays live delivery. With a Redis client the hub bridges
// broadcasts across processes over Pub/Sub; without one it delivers locally.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	rdb    *redis.Client
	logger *zap.SugaredLogger
}

// NewHub creates a Hub. rdb may be nil for single-process deployments.
func NewHub(rdb *redis.Client, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		rdb:    rdb,
		logger: logger,
	}
}

// Run consumes the cross-process broadcast channels until ctx is cancelled.
// It must be running whenever a Redis client was supplied, otherwise local
// subscribers never hear published broadcasts.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.PSubscribe(ctx, groupChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			group := strings.TrimPrefix(msg.Channel, groupChannelPrefix)
			h.broadcastLocal(group, []byte(msg.Payload))
		}
	}
}

// Subscribe registers a connection as a live member of a group.
func (h *Hub) Subscribe(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
	c.groups[group] = struct{}{}
}

// Unsubscribe removes a connection from a group. Idempotent.
func (h *Hub) Unsubscribe(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(group, c)
}

// Broadcast serializes v and delivers it to every member of the group. With
// Redis the payload goes over Pub/Sub so members on other processes receive
// it too; the local delivery then happens in Run's consumer loop. Failures
// are logged and dropped, never propagated.
func (h *Hub) Broadcast(group string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Errorw("hub broadcast marshal failed", "group", group, "err", err)
		return
	}

	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := h.rdb.Publish(ctx, groupChannelPrefix+group, payload).Err()
		cancel()
		if err == nil {
			return
		}
		h.logger.Warnw("hub publish failed, falling back to local delivery", "group", group, "err", err)
	}
	h.broadcastLocal(group, payload)
}

// PushNotification implements services.Pusher.
func (h *Hub) PushNotification(n *models.Notification) {
	h.Broadcast(NotificationGroup(n.UserID), NewNotificationPush{
		Type:         MessageTypeNewNotification,
		Notification: PayloadFromModel(n),
	})
}

// broadcastLocal hands the payload to every locally connected member.
// A member whose send buffer is full is disconnected rather than blocked on.
func (h *Hub) broadcastLocal(group string, payload []byte) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.trySend(payload) {
			h.logger.Debugw("dropping slow live connection", "conn", c.id, "group", group)
			h.detach(c)
		}
	}
}

// detach removes a client from every group it joined and closes its send
// channel. Called on disconnect and on backpressure; safe to call twice.
func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for group := range c.groups {
		h.removeLocked(group, c)
	}
	c.closeSend()
}

func (h *Hub) removeLocked(group string, c *Client) {
	delete(c.groups, group)
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// GroupSize reports the current local membership of a group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}
