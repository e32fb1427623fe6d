package feedback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// Options configures a Recorder.
type Options struct {
	BufferSize  int
	MemoryLimit int
	Logger      ports.Logger
}

// Recorder writes feedback asynchronously. Record never blocks the caller:
// when the buffer is full the record is dropped and counted. A storage
// failure switches the recorder to its in-memory ring for the rest of the
// process.
type Recorder struct {
	repo     ports.FeedbackRepository
	fallback *MemoryStore
	log      ports.Logger

	queue chan domain.FeedbackRecord
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	degraded atomic.Bool
	dropped  atomic.Int64
	enqueued atomic.Int64
	written  atomic.Int64
}

// NewRecorder starts the writer goroutine. A nil repo starts degraded.
func NewRecorder(repo ports.FeedbackRepository, opts Options) *Recorder {
	size := opts.BufferSize
	if size <= 0 {
		size = domain.DefaultFeedbackBufferSize
	}
	r := &Recorder{
		repo:     repo,
		fallback: NewMemoryStore(opts.MemoryLimit),
		log:      opts.Logger,
		queue:    make(chan domain.FeedbackRecord, size),
		done:     make(chan struct{}),
	}
	if repo == nil {
		r.degraded.Store(true)
	}
	go r.loop()
	return r
}

// Record implements ports.FeedbackRecorder.
func (r *Recorder) Record(record domain.FeedbackRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- record:
		r.enqueued.Add(1)
	default:
		r.dropped.Add(1)
		r.warn("feedback buffer full, record dropped", map[string]interface{}{"id": record.ID})
	}
}

func (r *Recorder) loop() {
	defer close(r.done)
	for record := range r.queue {
		r.write(record)
	}
}

func (r *Recorder) write(record domain.FeedbackRecord) {
	if !r.degraded.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := r.repo.Append(ctx, record)
		cancel()
		if err == nil {
			r.written.Add(1)
			return
		}
		r.degraded.Store(true)
		if r.log != nil {
			r.log.Error("feedback storage unavailable, keeping records in memory",
				domain.NewError(domain.KindStorageUnavailable, "feedback", "append failed").Wrap(err), nil)
		}
	}
	_ = r.fallback.Append(context.Background(), record)
	r.written.Add(1)
}

// Close stops accepting records and waits for the queue to drain.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every record queued so far has been written.
func (r *Recorder) Flush(ctx context.Context) error {
	target := r.enqueued.Load()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for r.written.Load() < target {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Records reads from whichever store is live.
func (r *Recorder) Records(ctx context.Context, limit int, search string) ([]domain.FeedbackRecord, error) {
	if r.degraded.Load() {
		return r.fallback.Records(ctx, limit, search)
	}
	return r.repo.Records(ctx, limit, search)
}

// Degraded reports whether records are only kept in memory.
func (r *Recorder) Degraded() bool {
	return r.degraded.Load()
}

// Dropped returns how many records were lost to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written returns how many records reached a store.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

func (r *Recorder) warn(msg string, fields map[string]interface{}) {
	if r.log != nil {
		r.log.Warn(msg, fields)
	}
}

var _ ports.FeedbackRecorder = (*Recorder)(nil)
