package culturalindex

import (
	"context"
	"log/slog"
)

// Hook system allows extending index behavior without modifying core code.
// Hooks run after a mutation has been committed and can never undo it.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	AfterPieceUpload []AfterPieceUploadHook
	AfterVoteCast    []AfterVoteCastHook

	// OnError receives failures of event sinks and of the hooks above
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// AfterPieceUploadHook is called after a piece is stored
type AfterPieceUploadHook func(hctx *HookContext, piece Piece) error

// AfterVoteCastHook is called after a vote is appended
type AfterVoteCastHook func(hctx *HookContext, pieceID int, voter Voter) error

// ErrorHook is called when a notification fails
type ErrorHook func(hctx *HookContext, operation string, err error)

// Merge returns a new Hooks holding h's hooks followed by other's.
// Either side may be nil.
func (h *Hooks) Merge(other *Hooks) *Hooks {
	merged := &Hooks{}
	for _, src := range []*Hooks{h, other} {
		if src == nil {
			continue
		}
		merged.AfterPieceUpload = append(merged.AfterPieceUpload, src.AfterPieceUpload...)
		merged.AfterVoteCast = append(merged.AfterVoteCast, src.AfterVoteCast...)
		merged.OnError = append(merged.OnError, src.OnError...)
	}
	return merged
}

// executeAfterPieceUpload runs all AfterPieceUpload hooks
func (h *Hooks) executeAfterPieceUpload(ctx context.Context, piece Piece) error {
	if h == nil || len(h.AfterPieceUpload) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterPieceUpload {
		if err := hook(hctx, piece); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeAfterVoteCast runs all AfterVoteCast hooks
func (h *Hooks) executeAfterVoteCast(ctx context.Context, pieceID int, voter Voter) error {
	if h == nil || len(h.AfterVoteCast) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterVoteCast {
		if err := hook(hctx, pieceID, voter); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeOnError runs all OnError hooks
func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// LoggingHook logs uploads, votes and notification failures
func LoggingHook(logger *slog.Logger) *Hooks {
	return &Hooks{
		AfterPieceUpload: []AfterPieceUploadHook{
			func(hctx *HookContext, piece Piece) error {
				logger.Info("Piece uploaded", "piece_id", piece.ID, "uploader", piece.Uploader)
				return nil
			},
		},
		AfterVoteCast: []AfterVoteCastHook{
			func(hctx *HookContext, pieceID int, voter Voter) error {
				logger.Info("Vote cast", "piece_id", pieceID, "address", voter.Address, "weight", voter.Weight)
				return nil
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, operation string, err error) {
				logger.Error("Notification failed", "operation", operation, "error", err)
			},
		},
	}
}
