package game

// Error is a mutation failure class. Failures are reported to clients as
// is_success=false; the error only feeds the log.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrClockViolation means the room clock is ahead of the authoritative clock.
	ErrClockViolation Error = "room time is in the future"

	// ErrStaleRequest means the request time is already in the past.
	ErrStaleRequest Error = "request time is in the past"

	// ErrOrdinalMismatch means another purchase of the item won the race.
	ErrOrdinalMismatch Error = "item count does not match"

	// ErrInsufficientBalance means the room cannot afford the item yet.
	ErrInsufficientBalance Error = "not enough isu"

	// ErrUnknownItem means the item id is not in the catalog.
	ErrUnknownItem Error = "unknown item"

	// ErrInvalidAmount means a deposit amount is missing or negative.
	ErrInvalidAmount Error = "invalid isu amount"
)
