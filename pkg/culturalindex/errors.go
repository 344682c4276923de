package culturalindex

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrPieceNotFound indicates the piece ID does not reference an uploaded piece
	ErrPieceNotFound = errors.New("piece not found")

	// ErrAlreadyVoted indicates the address already holds a vote on the piece
	ErrAlreadyVoted = errors.New("address already voted for piece")

	// ErrInvalidWeight indicates a negative, NaN or infinite vote weight, or one
	// that would overflow the piece's total voting weight
	ErrInvalidWeight = errors.New("invalid vote weight")
)

// VoteError describes a rejected vote.
type VoteError struct {
	PieceID int
	Address string
	Err     error
}

func (e *VoteError) Error() string {
	return fmt.Sprintf("vote by %s on piece %d rejected: %v", e.Address, e.PieceID, e.Err)
}

func (e *VoteError) Unwrap() error {
	return e.Err
}

var (
	// ErrSinkClosed indicates an event was sent to a closed AsyncEventSink
	ErrSinkClosed = errors.New("event sink closed")

	// ErrEventDropped indicates an AsyncEventSink buffer was full
	ErrEventDropped = errors.New("event dropped: buffer full")
)
