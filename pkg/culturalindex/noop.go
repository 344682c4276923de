package culturalindex

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PieceUploaded does nothing and returns nil
func (n *NoopEventSink) PieceUploaded(ctx context.Context, piece Piece) error {
	return nil
}

// VoteCast does nothing and returns nil
func (n *NoopEventSink) VoteCast(ctx context.Context, pieceID int, voter Voter) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger uses
// slog.Default().
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// PieceUploaded logs the upload event
func (l *LoggingEventSink) PieceUploaded(ctx context.Context, piece Piece) error {
	l.logger.InfoContext(ctx, "Upload event",
		"piece_id", piece.ID,
		"uploader", piece.Uploader,
		"name", piece.Metadata.Name)
	return nil
}

// VoteCast logs the vote event
func (l *LoggingEventSink) VoteCast(ctx context.Context, pieceID int, voter Voter) error {
	l.logger.InfoContext(ctx, "Vote event",
		"piece_id", pieceID,
		"address", voter.Address,
		"weight", voter.Weight)
	return nil
}
