package culturalindex

import "context"

// Index defines the operations of the cultural index.
type Index interface {
	// Piece operations
	UploadPiece(ctx context.Context, metadata PieceMetadata, uploader string) int
	GetPiece(id int) (Piece, bool)
	PieceCount() int
	ListPieces() []PieceWeight

	// Vote operations
	Vote(ctx context.Context, id int, voter Voter) bool
	CastVote(ctx context.Context, id int, voter Voter) error
	HasVoted(id int, address string) bool
	GetVotes(id int) ([]Voter, bool)
	GetVotingWeight(id int) float64

	// Composite reads
	GetPieceAndVotes(id int) PieceAndVotes
}

// EventSink defines the interface for notification handling
type EventSink interface {
	// PieceUploaded is fired after a piece is stored
	PieceUploaded(ctx context.Context, piece Piece) error

	// VoteCast is fired after a vote is appended to a piece's ledger
	VoteCast(ctx context.Context, pieceID int, voter Voter) error
}
