package mahjong

import (
	"encoding/json"
	"fmt"
)

// Settings is the rule set of one match. It is a value type; callers pass copies.
type Settings struct {
	Mode        Mode   `json:"mode"`
	Length      Length `json:"length"`
	StartPoint  int    `json:"startPoint"`
	ReturnPoint int    `json:"returnPoint"`
	// Uma is the rank bonus pair [low, high] in thousands.
	Uma [2]int `json:"uma"`

	HasHonba bool `json:"hasHonba"`
	// HonbaPoints is what every payer hands over per honba counter.
	HonbaPoints int `json:"honbaPoints"`

	TenpaiRenchan    bool `json:"tenpaiRenchan"`
	UseTobi          bool `json:"useTobi"`
	UseChip          bool `json:"useChip"`
	UseOka           bool `json:"useOka"`
	UseFuCalculation bool `json:"useFuCalculation"`
	// KiriageMangan promotes 4 han 30 fu and 3 han 60 fu to mangan.
	KiriageMangan bool `json:"kiriageMangan"`
	WestExtension bool `json:"westExtension"`
	SingleDevice  bool `json:"isSingleMode"`

	// Rate converts one result point into money at settlement.
	Rate int `json:"rate"`
}

func DefaultSettings(mode Mode) Settings {
	s := Settings{
		Mode:             FourPlayer,
		Length:           Hanchan,
		StartPoint:       25000,
		ReturnPoint:      30000,
		Uma:              [2]int{5, 10},
		HasHonba:         true,
		HonbaPoints:      100,
		TenpaiRenchan:    true,
		UseTobi:          true,
		UseOka:           true,
		UseFuCalculation: true,
		Rate:             50,
	}
	if mode == ThreePlayer {
		s.Mode = ThreePlayer
		s.StartPoint = 35000
		s.ReturnPoint = 40000
		s.Uma = [2]int{10, 20}
	}
	return s
}

// ParseSettings decodes overrides on top of the defaults for mode and validates the result.
// An empty payload yields the defaults.
func ParseSettings(mode Mode, raw []byte) (Settings, error) {
	s := DefaultSettings(mode)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s); err != nil {
			return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		if s.Mode != mode {
			return Settings{}, fmt.Errorf("%w: rules are for %s, not %s", ErrInvalidSettings, s.Mode, mode)
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	switch {
	case s.Mode.Seats() == 0:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s.Mode)
	case !s.Length.valid():
		return fmt.Errorf("%w: unknown length %q", ErrInvalidSettings, s.Length)
	case s.StartPoint <= 0 || s.ReturnPoint <= 0:
		return fmt.Errorf("%w: start and return points must be positive", ErrInvalidSettings)
	case s.ReturnPoint%1000 != 0 || s.StartPoint%1000 != 0:
		return fmt.Errorf("%w: start and return points must be multiples of 1000", ErrInvalidSettings)
	case s.Uma[0] < 0 || s.Uma[1] < 0:
		return fmt.Errorf("%w: uma must not be negative", ErrInvalidSettings)
	case s.HonbaPoints < 0:
		return fmt.Errorf("%w: honba points must not be negative", ErrInvalidSettings)
	case s.Rate < 0:
		return fmt.Errorf("%w: rate must not be negative", ErrInvalidSettings)
	}
	return nil
}

// Seats is the number of players the mode seats.
func (s Settings) Seats() int {
	return s.Mode.Seats()
}

func (s Settings) honbaUnit() int {
	if !s.HasHonba {
		return 0
	}
	return s.HonbaPoints
}

// referencePoint is the score final settlement measures against.
func (s Settings) referencePoint() int {
	if s.UseOka {
		return s.ReturnPoint
	}
	return s.StartPoint
}
