package hub

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"mahjong-score/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "room:events:"
	channelPattern = channelPrefix + "*"
	bufferSize     = 16
)

type EventType string

const (
	EventRoom  EventType = "room"
	EventError EventType = "error"
)

// Event is pushed to every client watching a room.
type Event struct {
	Type    EventType       `json:"type"`
	RoomID  string          `json:"roomId"`
	Version int64           `json:"version"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hub fans room events out to local subscribers. With a redis client,
// events travel through redis pub/sub so every instance sees them.
type Hub struct {
	rdb *redis.Client

	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rdb:  rdb,
		subs: make(map[string]map[chan Event]struct{}),
	}
}

func buildChannelKey(roomID string) string {
	return channelPrefix + roomID
}

func (h *Hub) Subscribe(roomID string) chan Event {
	ch := make(chan Event, bufferSize)
	h.mu.Lock()
	if h.subs[roomID] == nil {
		h.subs[roomID] = make(map[chan Event]struct{})
	}
	h.subs[roomID][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(roomID string, ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[roomID][ch]; ok {
		delete(h.subs[roomID], ch)
		close(ch)
	}
	if len(h.subs[roomID]) == 0 {
		delete(h.subs, roomID)
	}
	h.mu.Unlock()
}

// Publish hands an event to redis, or straight to local subscribers when
// redis is not configured.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if h.rdb == nil {
		h.deliver(ev)
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, buildChannelKey(ev.RoomID), payload).Err()
}

// Run relays redis messages to local subscribers until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		return nil
	}
	ps := h.rdb.PSubscribe(ctx, channelPattern)
	defer ps.Close()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Log.Warn("drop malformed room event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if ev.RoomID == "" {
				ev.RoomID = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.RoomID] {
		select {
		case ch <- ev:
		default:
			logger.Log.Warn("room subscriber channel full", zap.String("roomID", ev.RoomID), zap.Int64("version", ev.Version))
		}
	}
}

// Subscribers reports how many local clients watch a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[roomID])
}
