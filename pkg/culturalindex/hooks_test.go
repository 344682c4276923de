package culturalindex_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/cultural-index/pkg/culturalindex"
)

type failingSink struct{}

func (failingSink) PieceUploaded(ctx context.Context, piece culturalindex.Piece) error {
	return errors.New("sink down")
}

func (failingSink) VoteCast(ctx context.Context, pieceID int, voter culturalindex.Voter) error {
	return errors.New("sink down")
}

func TestHooks_AfterHooksRunInOrder(t *testing.T) {
	var calls []string
	hooks := &culturalindex.Hooks{
		AfterPieceUpload: []culturalindex.AfterPieceUploadHook{
			func(hctx *culturalindex.HookContext, piece culturalindex.Piece) error {
				calls = append(calls, "upload-1")
				hctx.Metadata["seen"] = piece.ID
				return nil
			},
			func(hctx *culturalindex.HookContext, piece culturalindex.Piece) error {
				calls = append(calls, "upload-2")
				assert.Equal(t, piece.ID, hctx.Metadata["seen"])
				return nil
			},
		},
		AfterVoteCast: []culturalindex.AfterVoteCastHook{
			func(hctx *culturalindex.HookContext, pieceID int, voter culturalindex.Voter) error {
				calls = append(calls, "vote:"+voter.Address)
				return nil
			},
		},
	}

	idx := culturalindex.New(culturalindex.WithHooks(hooks))
	ctx := context.Background()
	id := idx.UploadPiece(ctx, culturalindex.PieceMetadata{Name: "A"}, "0xA")
	idx.Vote(ctx, id, culturalindex.Voter{Address: "0xV", Weight: 1})
	idx.Vote(ctx, id, culturalindex.Voter{Address: "0xV", Weight: 1})

	assert.Equal(t, []string{"upload-1", "upload-2", "vote:0xV"}, calls)
}

func TestHooks_StopChain(t *testing.T) {
	var calls int
	hooks := &culturalindex.Hooks{
		AfterPieceUpload: []culturalindex.AfterPieceUploadHook{
			func(hctx *culturalindex.HookContext, piece culturalindex.Piece) error {
				calls++
				hctx.StopChain = true
				return nil
			},
			func(hctx *culturalindex.HookContext, piece culturalindex.Piece) error {
				calls++
				return nil
			},
		},
	}

	idx := culturalindex.New(culturalindex.WithHooks(hooks))
	idx.UploadPiece(context.Background(), culturalindex.PieceMetadata{}, "0xA")
	assert.Equal(t, 1, calls)
}

func TestHooks_FailuresDoNotChangeOutcome(t *testing.T) {
	var failures []string
	hooks := &culturalindex.Hooks{
		AfterVoteCast: []culturalindex.AfterVoteCastHook{
			func(hctx *culturalindex.HookContext, pieceID int, voter culturalindex.Voter) error {
				return errors.New("hook exploded")
			},
		},
		OnError: []culturalindex.ErrorHook{
			func(hctx *culturalindex.HookContext, operation string, err error) {
				failures = append(failures, operation+": "+err.Error())
			},
		},
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	idx := culturalindex.New(
		culturalindex.WithEventSink(failingSink{}),
		culturalindex.WithHooks(hooks),
		culturalindex.WithLogger(logger),
	)
	ctx := context.Background()

	id := idx.UploadPiece(ctx, culturalindex.PieceMetadata{}, "0xA")
	assert.Equal(t, 0, id)
	assert.True(t, idx.Vote(ctx, id, culturalindex.Voter{Address: "0xV", Weight: 2}))
	assert.Equal(t, 2.0, idx.GetVotingWeight(id))

	require.Len(t, failures, 3)
	assert.Equal(t, "piece.uploaded: sink down", failures[0])
	assert.Equal(t, "vote.cast: sink down", failures[1])
	assert.Equal(t, "vote.cast: hook exploded", failures[2])
	assert.Contains(t, buf.String(), "Event sink failed")
}

func TestHooks_Merge(t *testing.T) {
	a := &culturalindex.Hooks{OnError: []culturalindex.ErrorHook{func(*culturalindex.HookContext, string, error) {}}}
	b := culturalindex.LoggingHook(slog.Default())

	merged := a.Merge(b)
	assert.Len(t, merged.OnError, 2)
	assert.Len(t, merged.AfterPieceUpload, 1)
	assert.Len(t, merged.AfterVoteCast, 1)

	var nilHooks *culturalindex.Hooks
	assert.Len(t, nilHooks.Merge(nil).OnError, 0)
}

func TestLoggingHook_LogsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	idx := culturalindex.New(culturalindex.WithHooks(culturalindex.LoggingHook(logger)))
	ctx := context.Background()

	id := idx.UploadPiece(ctx, culturalindex.PieceMetadata{Name: "A"}, "0xUploader")
	idx.Vote(ctx, id, culturalindex.Voter{Address: "0xVoter", Weight: 7})

	out := buf.String()
	assert.Contains(t, out, "Piece uploaded")
	assert.Contains(t, out, "uploader=0xUploader")
	assert.Contains(t, out, "Vote cast")
	assert.Contains(t, out, "address=0xVoter")
}
