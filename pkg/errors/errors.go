package errors

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")

	ErrRoomNotFound    = errors.New("room not found")
	ErrNotRoomMember   = errors.New("not a member of this room")
	ErrNotRoomHost     = errors.New("only the host can do this")
	ErrVersionConflict = errors.New("room was updated by someone else")
	ErrUnbalancedHand  = errors.New("hand deltas do not balance")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrRoomClosed      = errors.New("room is closed")

	ErrPresetNotFound = errors.New("rule preset not found")
	ErrInvalidName    = errors.New("name is required")
)
