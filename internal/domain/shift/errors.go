package shift

import "errors"

var (
	ErrInvalidTime       = errors.New("time must be in HH:MM format")
	ErrIncompleteBreak   = errors.New("break requires both start and end time")
	ErrBreakExceedsShift = errors.New("break hours exceed shift hours")
)
