package culturalindex

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/exp/slices"
)

// index implements the Index interface.
//
// pieces, ledgers and voters are indexed by piece ID and always have the same
// length. voters mirrors each ledger's addresses for duplicate detection.
type index struct {
	mu      sync.RWMutex
	pieces  []Piece
	ledgers [][]Voter
	voters  []map[string]struct{}

	eventSink EventSink
	hooks     *Hooks
	logger    *slog.Logger
}

// Option represents a functional option for configuring the index
type Option func(*index)

// WithEventSink sets the event sink for the index
func WithEventSink(sink EventSink) Option {
	return func(x *index) {
		x.eventSink = sink
	}
}

// WithHooks merges the given hooks into the index's hooks
func WithHooks(hooks *Hooks) Option {
	return func(x *index) {
		x.hooks = x.hooks.Merge(hooks)
	}
}

// WithLogger sets the logger used to report notification failures
func WithLogger(logger *slog.Logger) Option {
	return func(x *index) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// New creates a new, empty index with the given options
func New(options ...Option) Index {
	x := &index{
		eventSink: NewNoopEventSink(),
		hooks:     &Hooks{},
		logger:    slog.Default(),
	}

	for _, option := range options {
		option(x)
	}

	return x
}

// Piece operations

func (x *index) UploadPiece(ctx context.Context, metadata PieceMetadata, uploader string) int {
	x.mu.Lock()
	piece := Piece{
		ID:       len(x.pieces),
		Metadata: metadata,
		Uploader: uploader,
	}
	x.pieces = append(x.pieces, piece)
	x.ledgers = append(x.ledgers, []Voter{})
	x.voters = append(x.voters, make(map[string]struct{}))
	x.mu.Unlock()

	x.notifyPieceUploaded(ctx, piece)

	return piece.ID
}

func (x *index) GetPiece(id int) (Piece, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.piece(id)
}

func (x *index) PieceCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.pieces)
}

func (x *index) ListPieces() []PieceWeight {
	x.mu.RLock()
	defer x.mu.RUnlock()

	result := make([]PieceWeight, 0, len(x.pieces))
	for _, p := range x.pieces {
		result = append(result, PieceWeight{
			Piece:  p,
			Weight: x.weight(p.ID),
		})
	}
	return result
}

// Vote operations

// Vote reports whether the vote was recorded. It is CastVote without the
// rejection reason.
func (x *index) Vote(ctx context.Context, id int, voter Voter) bool {
	return x.CastVote(ctx, id, voter) == nil
}

// CastVote appends the vote to the piece's ledger. A rejected vote leaves all
// state untouched and emits no notification.
//
// Negative IDs are rejected with ErrPieceNotFound, the same as IDs past the
// last uploaded piece.
func (x *index) CastVote(ctx context.Context, id int, voter Voter) error {
	if err := x.appendVote(id, voter); err != nil {
		return &VoteError{
			PieceID: id,
			Address: voter.Address,
			Err:     err,
		}
	}

	x.notifyVoteCast(ctx, id, voter)

	return nil
}

func (x *index) appendVote(id int, voter Voter) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if id < 0 || id >= len(x.pieces) {
		return ErrPieceNotFound
	}
	if !validWeight(voter.Weight) {
		return ErrInvalidWeight
	}
	if _, exists := x.voters[id][voter.Address]; exists {
		return ErrAlreadyVoted
	}
	if math.IsInf(x.weight(id)+voter.Weight, 1) {
		return ErrInvalidWeight
	}

	x.ledgers[id] = append(x.ledgers[id], voter)
	x.voters[id][voter.Address] = struct{}{}
	return nil
}

func (x *index) HasVoted(id int, address string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if id < 0 || id >= len(x.voters) {
		return false
	}
	_, exists := x.voters[id][address]
	return exists
}

func (x *index) GetVotes(id int) ([]Voter, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.votes(id)
}

func (x *index) GetVotingWeight(id int) float64 {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.weight(id)
}

// Composite reads

func (x *index) GetPieceAndVotes(id int) PieceAndVotes {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var result PieceAndVotes
	if piece, ok := x.piece(id); ok {
		result.Piece = &piece
	}
	if votes, ok := x.votes(id); ok {
		result.Votes = votes
	}
	result.VotingWeight = x.weight(id)
	return result
}

// Lock-free helpers; callers hold x.mu.

func (x *index) piece(id int) (Piece, bool) {
	if id < 0 || id >= len(x.pieces) {
		return Piece{}, false
	}
	return x.pieces[id], true
}

func (x *index) votes(id int) ([]Voter, bool) {
	if id < 0 || id >= len(x.ledgers) {
		return nil, false
	}
	return slices.Clone(x.ledgers[id]), true
}

func (x *index) weight(id int) float64 {
	if id < 0 || id >= len(x.ledgers) {
		return 0
	}
	var total float64
	for _, v := range x.ledgers[id] {
		total += v.Weight
	}
	return total
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsNaN(w) && !math.IsInf(w, 1)
}

// Notifications. Called without x.mu held.

func (x *index) notifyPieceUploaded(ctx context.Context, piece Piece) {
	if x.eventSink != nil {
		if err := x.eventSink.PieceUploaded(ctx, piece); err != nil {
			x.logger.Warn("Event sink failed", "event", EventPieceUploaded, "piece_id", piece.ID, "error", err)
			x.hooks.executeOnError(ctx, string(EventPieceUploaded), err)
		}
	}

	if err := x.hooks.executeAfterPieceUpload(ctx, piece); err != nil {
		x.logger.Warn("Hook failed", "event", EventPieceUploaded, "piece_id", piece.ID, "error", err)
		x.hooks.executeOnError(ctx, string(EventPieceUploaded), err)
	}
}

func (x *index) notifyVoteCast(ctx context.Context, pieceID int, voter Voter) {
	if x.eventSink != nil {
		if err := x.eventSink.VoteCast(ctx, pieceID, voter); err != nil {
			x.logger.Warn("Event sink failed", "event", EventVoteCast, "piece_id", pieceID, "address", voter.Address, "error", err)
			x.hooks.executeOnError(ctx, string(EventVoteCast), err)
		}
	}

	if err := x.hooks.executeAfterVoteCast(ctx, pieceID, voter); err != nil {
		x.logger.Warn("Hook failed", "event", EventVoteCast, "piece_id", pieceID, "address", voter.Address, "error", err)
		x.hooks.executeOnError(ctx, string(EventVoteCast), err)
	}
}
