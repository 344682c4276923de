package culturalindex

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// MultiSink fans every event out to each of its sinks in order. All sinks
// are called even if one fails; the failures are joined.
type MultiSink []EventSink

// PieceUploaded forwards the event to every sink
func (m MultiSink) PieceUploaded(ctx context.Context, piece Piece) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PieceUploaded(ctx, piece); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// VoteCast forwards the event to every sink
func (m MultiSink) VoteCast(ctx context.Context, pieceID int, voter Voter) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.VoteCast(ctx, pieceID, voter); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordingSink keeps every event it receives. It is intended for tests and
// for hosts that want to inspect recent activity.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

// NewRecordingSink creates an empty recording sink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// PieceUploaded records the upload
func (r *RecordingSink) PieceUploaded(ctx context.Context, piece Piece) error {
	r.record(newPieceUploadedEvent(piece))
	return nil
}

// VoteCast records the vote
func (r *RecordingSink) VoteCast(ctx context.Context, pieceID int, voter Voter) error {
	r.record(newVoteCastEvent(pieceID, voter))
	return nil
}

func (r *RecordingSink) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in arrival order
func (r *RecordingSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// AsyncEventSink delivers events to another sink on a background goroutine.
// Events are queued in a bounded buffer; when the buffer is full the event is
// dropped and ErrEventDropped is returned. Close drains the queue.
type AsyncEventSink struct {
	next   EventSink
	logger *slog.Logger
	queue  chan queuedEvent
	done   chan struct{}

	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	dropped atomic.Uint64
}

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// NewAsyncEventSink starts the delivery goroutine. buffer <= 0 selects a
// buffer of 64 events.
func NewAsyncEventSink(next EventSink, buffer int, logger *slog.Logger) *AsyncEventSink {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &AsyncEventSink{
		next:   next,
		logger: logger,
		queue:  make(chan queuedEvent, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// PieceUploaded queues the upload event
func (s *AsyncEventSink) PieceUploaded(ctx context.Context, piece Piece) error {
	return s.enqueue(ctx, newPieceUploadedEvent(piece))
}

// VoteCast queues the vote event
func (s *AsyncEventSink) VoteCast(ctx context.Context, pieceID int, voter Voter) error {
	return s.enqueue(ctx, newVoteCastEvent(pieceID, voter))
}

// Dropped returns the number of events dropped because the buffer was full
func (s *AsyncEventSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops accepting events and waits until queued events are delivered
func (s *AsyncEventSink) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	<-s.done
	return nil
}

func (s *AsyncEventSink) enqueue(ctx context.Context, e Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: e}:
		return nil
	default:
		s.dropped.Add(1)
		return ErrEventDropped
	}
}

func (s *AsyncEventSink) run() {
	defer close(s.done)
	for q := range s.queue {
		if err := deliver(q.ctx, s.next, q.event); err != nil {
			s.logger.Warn("Async event delivery failed", "event", q.event.Type, "event_id", q.event.ID, "error", err)
		}
	}
}

func deliver(ctx context.Context, sink EventSink, e Event) error {
	if sink == nil {
		return nil
	}
	switch e.Type {
	case EventPieceUploaded:
		if e.Piece != nil {
			return sink.PieceUploaded(ctx, *e.Piece)
		}
	case EventVoteCast:
		if e.Voter != nil {
			return sink.VoteCast(ctx, e.PieceID, *e.Voter)
		}
	}
	return nil
}
