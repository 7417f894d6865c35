package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/lister/internal/export"
	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

// Options configures a Service. Zero fields fall back to DefaultOptions.
type Options struct {
	Rules  parse.Rules
	Matrix export.Matrix

	MaxFileSize     int64
	MaxWait         time.Duration
	Timeout         time.Duration
	ResultRetention time.Duration

	Concurrency  int
	HistoryLimit int
	RawPageSize  int
}

// DefaultOptions returns the built-in vocabulary and limits.
func DefaultOptions() Options {
	return Options{
		Rules:           parse.DefaultRules(),
		Matrix:          export.DefaultMatrix(),
		MaxFileSize:     20 << 20,
		MaxWait:         DefaultMaxWaitTime,
		Timeout:         5 * time.Minute,
		ResultRetention: 5 * time.Minute,
		Concurrency:     export.DefaultConcurrency,
		HistoryLimit:    20,
		RawPageSize:     50,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Rules.Marker == "" {
		o.Rules = d.Rules
	}
	if len(o.Matrix.Years) == 0 && len(o.Matrix.Courses) == 0 && len(o.Matrix.Awards) == 0 {
		o.Matrix = d.Matrix
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = d.MaxFileSize
	}
	if o.MaxWait <= 0 {
		o.MaxWait = d.MaxWait
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.ResultRetention <= 0 {
		o.ResultRetention = d.ResultRetention
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = d.HistoryLimit
	}
	if o.RawPageSize <= 0 {
		o.RawPageSize = d.RawPageSize
	}
	return o
}

// Service runs ingestion passes against a record store and serves the
// queries, exports and reports built on top of it.
//
// At most one pass runs at a time. Passes started with StartIngest run in
// the background; their progress and result stay available for
// Options.ResultRetention after they finish.
type Service struct {
	store   store.Store
	opts    Options
	limiter *Limiter

	mu      sync.RWMutex
	ingests map[string]*activeIngest

	rawMu sync.RWMutex
	raw   *rawTable
}

type activeIngest struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	// result and err are written once before done is closed.
	result *Report
	err    error

	mu        sync.Mutex
	progress  Progress
	listeners []chan Progress
	closed    bool
}

// NewService creates a Service over st.
func NewService(st store.Store, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		store:   st,
		opts:    opts,
		limiter: NewLimiter(1, opts.MaxWait),
		ingests: make(map[string]*activeIngest),
	}
}

// Options returns the effective service options.
func (s *Service) Options() Options {
	return s.opts
}

// Limiter exposes the ingestion limiter for monitoring.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// ReadUpload reads an upload into memory, failing with ErrFileTooLarge past
// the configured size limit.
func (s *Service) ReadUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.opts.MaxFileSize)
	}
	return data, nil
}

// Ingest runs one pass synchronously.
//
// The report is returned even when err is non-nil so callers can show the
// pass log. err is ErrNoRecords for a pass that found nothing and wraps
// ErrIngestionFailed when the pass could not complete.
func (s *Service) Ingest(ctx context.Context, fileName string, r io.Reader) (*Report, error) {
	data, err := s.ReadUpload(r)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	passCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	return s.run(passCtx, uuid.NewString(), fileName, data, nil)
}

// StartIngest begins a background pass over data and returns its id.
//
// It blocks while another pass is running, for at most Options.MaxWait, and
// then fails with ErrIngestionBusy. ctx bounds only that wait; the pass
// itself runs under Options.Timeout.
func (s *Service) StartIngest(ctx context.Context, fileName string, data []byte) (string, error) {
	if int64(len(data)) > s.opts.MaxFileSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.opts.MaxFileSize)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	id := uuid.NewString()
	passCtx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)

	ing := &activeIngest{
		id:     id,
		cancel: cancel,
		done:   make(chan struct{}),
		progress: Progress{
			IngestID: id,
			FileName: fileName,
			Phase:    PhaseStarting,
		},
	}

	s.mu.Lock()
	s.ingests[id] = ing
	s.mu.Unlock()

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in ingestion", "ingest_id", id, "file", fileName, "panic", r)
				ing.err = fmt.Errorf("%w: internal error: %v", ErrIngestionFailed, r)
			}
			ing.finish()
			s.cleanup(id, s.opts.ResultRetention)
		}()

		ing.result, ing.err = s.run(passCtx, id, fileName, data, ing.update)
	}()

	return id, nil
}

// SubscribeProgress returns a channel that receives progress updates.
// The current progress is sent immediately and the channel is closed when
// the pass finishes.
func (s *Service) SubscribeProgress(id string) (<-chan Progress, error) {
	ing, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return ing.subscribe(), nil
}

// Progress returns the current progress without blocking.
func (s *Service) Progress(id string) (Progress, error) {
	ing, err := s.lookup(id)
	if err != nil {
		return Progress{}, err
	}
	return ing.snapshot(), nil
}

// Result waits for the pass to finish and returns its report and error,
// with the same meaning as Ingest.
func (s *Service) Result(ctx context.Context, id string) (*Report, error) {
	ing, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-ing.done:
		return ing.result, ing.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel stops a running pass. The store keeps its previous records.
func (s *Service) Cancel(id string) error {
	ing, err := s.lookup(id)
	if err != nil {
		return err
	}
	ing.cancel()
	return nil
}

// Shutdown cancels running passes and waits for them to release the store.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	for _, ing := range s.ingests {
		ing.cancel()
	}
	s.mu.RUnlock()

	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) lookup(id string) (*activeIngest, error) {
	s.mu.RLock()
	ing, ok := s.ingests[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIngestionNotFound, id)
	}
	return ing, nil
}

// cleanup removes the pass from tracking after a delay.
func (s *Service) cleanup(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.ingests, id)
		s.mu.Unlock()
	})
}

// update applies fn to the progress and fans the result out to listeners.
// Slow listeners miss intermediate updates.
func (a *activeIngest) update(fn func(*Progress)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fn(&a.progress)
	for _, ch := range a.listeners {
		select {
		case ch <- a.progress:
		default:
		}
	}
}

func (a *activeIngest) snapshot() Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress
}

func (a *activeIngest) subscribe() chan Progress {
	ch := make(chan Progress, 10)

	a.mu.Lock()
	defer a.mu.Unlock()

	ch <- a.progress
	if a.closed {
		close(ch)
		return ch
	}
	a.listeners = append(a.listeners, ch)
	return ch
}

// finish publishes the terminal phase, closes every listener and marks the
// pass done.
func (a *activeIngest) finish() {
	a.mu.Lock()
	if a.err != nil && !a.progress.Phase.Done() {
		a.progress.Phase = PhaseFailed
		a.progress.Error = a.err.Error()
	}
	for _, ch := range a.listeners {
		// The final update must not be dropped; evict stale ones if needed.
		for sent := false; !sent; {
			select {
			case ch <- a.progress:
				sent = true
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
		close(ch)
	}
	a.listeners = nil
	a.closed = true
	a.mu.Unlock()

	close(a.done)
}
