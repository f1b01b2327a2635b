package service

import (
	"context"

	"mahjong-score/internal/service/auth"
	"mahjong-score/internal/service/hub"
	"mahjong-score/internal/service/preset"
	"mahjong-score/internal/service/room"
	"mahjong-score/internal/service/stats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Hub    *hub.Hub
	Room   *room.Service
	Preset *preset.Service
	Stats  *stats.Service
	Auth   *auth.Service
}

// NewContainer wires the services. rdb may be nil; room events then stay in
// this process.
func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	h := hub.NewHub(rdb)
	return &Container{
		Hub:    h,
		Room:   room.NewService(db, h),
		Preset: preset.NewService(db),
		Stats:  stats.NewService(db),
		Auth:   auth.NewService(),
	}
}

// Run blocks relaying room events until ctx is cancelled.
func (c *Container) Run(ctx context.Context) error {
	return c.Hub.Run(ctx)
}
