package room

import (
	"context"
	"time"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/service/hub"
)

//go:generate mockgen -destination=mocks/publisher.go -package=mocks mahjong-score/internal/service/room Publisher

// Publisher broadcasts room changes after they are committed.
type Publisher interface {
	Publish(ctx context.Context, ev hub.Event) error
}

type Config struct {
	CodeLength  int
	MaxUndo     int
	CodeRetries int
}

func defaultConfig() Config {
	return Config{
		CodeLength:  6,
		MaxUndo:     50,
		CodeRetries: 5,
	}
}

// View is the room document clients render.
type View struct {
	ID      string `json:"id"`
	HostID  string `json:"hostId"`
	Name    string `json:"name"`
	Version int64  `json:"version"`
	CanUndo bool   `json:"canUndo"`
	mahjong.Session
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateParams struct {
	HostID   string
	HostName string
	Name     string
	Settings mahjong.Settings
	// LocalPlayers are extra seats filled from the host's device.
	LocalPlayers []string
}

type Summary struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Mode      string           `json:"mode"`
	Status    string           `json:"status"`
	Players   []mahjong.Player `json:"players"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type ListResult struct {
	Items []Summary
	Total int64
}

// HandResult is the room after a hand plus what the hand produced.
type HandResult struct {
	Room       *View               `json:"room"`
	Log        mahjong.HandLog     `json:"log"`
	Transition mahjong.Transition  `json:"transition"`
	Result     *mahjong.GameResult `json:"result,omitempty"`
}
