package culturalindex

import (
	"time"

	"github.com/google/uuid"
)

// PieceMetadata describes the content of a piece.
type PieceMetadata struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Image        string `json:"image" yaml:"image"`
	AnimationURL string `json:"animation_url,omitempty" yaml:"animation_url,omitempty"`
}

// Piece is a registered content item.
type Piece struct {
	ID       int           `json:"id"`
	Metadata PieceMetadata `json:"metadata"`
	Uploader string        `json:"uploader"`
}

// Voter is one vote cast on one piece.
type Voter struct {
	Address string  `json:"address" yaml:"address"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// PieceAndVotes combines the piece, its votes and its voting weight.
// Piece and Votes are nil when the ID is out of range; VotingWeight is 0.
type PieceAndVotes struct {
	Piece        *Piece  `json:"piece"`
	Votes        []Voter `json:"votes"`
	VotingWeight float64 `json:"voting_weight"`
}

// PieceWeight pairs a piece with its total voting weight at listing time.
type PieceWeight struct {
	Piece  Piece   `json:"piece"`
	Weight float64 `json:"weight"`
}

// EventType identifies a notification emitted by the index.
type EventType string

// Event type constants (typed).
const (
	EventPieceUploaded EventType = "piece.uploaded"
	EventVoteCast      EventType = "vote.cast"
)

// Event is a self-contained record of a notification, used by sinks that
// need to hold on to events (recording, async dispatch).
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	PieceID    int       `json:"piece_id"`
	Piece      *Piece    `json:"piece,omitempty"`
	Voter      *Voter    `json:"voter,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newPieceUploadedEvent(piece Piece) Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventPieceUploaded,
		PieceID:    piece.ID,
		Piece:      &piece,
		OccurredAt: time.Now().UTC(),
	}
}

func newVoteCastEvent(pieceID int, voter Voter) Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventVoteCast,
		PieceID:    pieceID,
		Voter:      &voter,
		OccurredAt: time.Now().UTC(),
	}
}
