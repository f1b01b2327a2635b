package mahjong

import "errors"

var (
	ErrInvalidSettings    = errors.New("invalid match settings")
	ErrInvalidPlayerCount = errors.New("player count must be 3 or 4")
	ErrUnknownPlayer      = errors.New("player not seated")
	ErrInvalidHand        = errors.New("invalid hand value")
	ErrInvalidOutcome     = errors.New("invalid hand outcome")
	ErrNotPlaying         = errors.New("match is not in play")
	ErrNotWaiting         = errors.New("match has already started")
	ErrRiichiNotAllowed   = errors.New("riichi not allowed")
	ErrRoomFull           = errors.New("all seats taken")
	ErrAlreadySeated      = errors.New("player already seated")
)
