package book

import "errors"

var (
	// ErrShortRecord reports a binary buffer shorter than one fixed-layout record.
	ErrShortRecord = errors.New("book: buffer shorter than record size")
	// ErrBadPrice reports a decimal that cannot be represented in the 128-bit wire layout.
	ErrBadPrice = errors.New("book: price out of range for wire encoding")
	// ErrInvalidMode reports a Process call for the inactive data mode.
	ErrInvalidMode = errors.New("book: operation not valid in current data mode")
	// ErrDuplicateOrder reports an Add for an order id that is already tracked.
	ErrDuplicateOrder = errors.New("book: order id already tracked")
	// ErrUnknownOrder reports a Modify/Delete for an untracked order id.
	// Managers treat it as a no-op unless strict mode is enabled.
	ErrUnknownOrder = errors.New("book: unknown order id")
	// ErrStopped reports an update arriving after Stop.
	ErrStopped = errors.New("book: ladder stopped")
	// ErrPaused reports an update arriving while the batcher is paused.
	ErrPaused = errors.New("book: batcher paused")
)
