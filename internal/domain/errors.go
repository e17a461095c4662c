package domain

import "errors"

var (
	// ErrValidation marks values rejected at construction time.
	ErrValidation = errors.New("validation error")
	// ErrInvalidTime marks temporal ordering violations.
	ErrInvalidTime = errors.New("invalid time")
	// ErrFrameAlreadyStarted is returned when starting while a frame is running.
	ErrFrameAlreadyStarted = errors.New("a frame is already started")
	// ErrNoFrameStarted is returned when stopping or cancelling while idle.
	ErrNoFrameStarted = errors.New("no frame started")
	// ErrCurrentFrameExists is returned when a different current frame is already stored.
	ErrCurrentFrameExists = errors.New("a different current frame already exists")
	// ErrActiveFrame is returned when an active frame is stored as completed, or the reverse.
	ErrActiveFrame = errors.New("frame state mismatch")
	ErrNotFound    = errors.New("not found")
	// ErrZebraIDConflict is returned when a zebra id is already owned by another timesheet.
	ErrZebraIDConflict = errors.New("zebra id already used by another timesheet")
	// ErrDeserialization marks stored records that cannot be turned back into entities.
	ErrDeserialization = errors.New("cannot deserialize record")
)
