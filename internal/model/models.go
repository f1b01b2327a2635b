package model

import (
	"time"

	"gorm.io/datatypes"
)

// Rooms

// Room holds the live session document. JSON columns are written wholesale on
// every change and guarded by Version.
type Room struct {
	ID              string         `gorm:"primaryKey;size:16"`
	HostID          string         `gorm:"size:64;not null;index"`
	Name            string         `gorm:"size:64"`
	Mode            string         `gorm:"size:8;not null"`
	Status          string         `gorm:"size:16;not null;default:waiting;index"` // waiting/playing/finished/ended
	PlayersJSON     datatypes.JSON `gorm:"column:players"`
	RoundJSON       datatypes.JSON `gorm:"column:round"`
	SettingsJSON    datatypes.JSON `gorm:"column:settings"`
	CurrentLogsJSON datatypes.JSON `gorm:"column:current_logs"`
	LastEventJSON   datatypes.JSON `gorm:"column:last_event"`
	Version         int64          `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RoomSnapshot is one entry of a room's undo stack: the document as it was
// before a mutation, plus the game result that mutation produced, if any.
type RoomSnapshot struct {
	ID           int64          `gorm:"primaryKey;autoIncrement"`
	RoomID       string         `gorm:"size:16;not null;index"`
	Version      int64          `gorm:"not null"`
	DocumentJSON datatypes.JSON `gorm:"column:document"`
	ResultID     *string        `gorm:"size:16"`
	CreatedAt    time.Time
}

type RoomPlayer struct {
	RoomID   string `gorm:"primaryKey;size:16"`
	PlayerID string `gorm:"primaryKey;size:64;index"`
	Name     string `gorm:"size:64"`
	JoinedAt time.Time
}

// Results

type GameResult struct {
	ID           string            `gorm:"primaryKey;size:16"`
	RoomID       string            `gorm:"size:16;not null;index"`
	Mode         string            `gorm:"size:8;not null"`
	RuleSnapshot datatypes.JSON    `gorm:"column:rule_snapshot"`
	LogsJSON     datatypes.JSON    `gorm:"column:logs"`
	FinishedAt   time.Time         `gorm:"index"`
	Scores       []GameResultScore `gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
}

type GameResultScore struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	ResultID string `gorm:"size:16;not null;index"`
	PlayerID string `gorm:"size:64;not null;index"`
	Name     string `gorm:"size:64"`
	Rank     int
	RawScore int
	Point    int
	ChipDiff int
}

// Presets

type RulePreset struct {
	ID           int64          `gorm:"primaryKey;autoIncrement"`
	Name         string         `gorm:"size:64;unique;not null"`
	Mode         string         `gorm:"size:8;not null"`
	SettingsJSON datatypes.JSON `gorm:"column:settings"`
	Status       string         `gorm:"default:enabled"` // enabled/disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// All lists every model for migration.
func All() []interface{} {
	return []interface{}{
		&Room{},
		&RoomSnapshot{},
		&RoomPlayer{},
		&GameResult{},
		&GameResultScore{},
		&RulePreset{},
	}
}
