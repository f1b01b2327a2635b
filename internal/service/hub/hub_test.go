package hub_test

import (
	"context"
	"testing"
	"time"

	"mahjong-score/internal/service/hub"
	"mahjong-score/pkg/logger"

	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func TestLocalPublish(t *testing.T) {
	h := hub.NewHub(nil)
	a := h.Subscribe("ROOM1")
	b := h.Subscribe("ROOM1")
	other := h.Subscribe("ROOM2")

	if err := h.Publish(context.Background(), hub.Event{Type: hub.EventRoom, RoomID: "ROOM1", Version: 3}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	for _, ch := range []chan hub.Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Version != 3 {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive event")
		}
	}
	select {
	case ev := <-other:
		t.Fatalf("other room must not receive events, got %+v", ev)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := hub.NewHub(nil)
	ch := h.Subscribe("ROOM1")
	h.Unsubscribe("ROOM1", ch)

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if n := h.Subscribers("ROOM1"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
	// a second unsubscribe must not panic on the closed channel
	h.Unsubscribe("ROOM1", ch)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := hub.NewHub(nil)
	h.Subscribe("ROOM1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = h.Publish(context.Background(), hub.Event{Type: hub.EventRoom, RoomID: "ROOM1", Version: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
}

func TestRunWithoutRedisStopsOnCancel(t *testing.T) {
	h := hub.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.Run(ctx) }()
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not stop")
	}
}
