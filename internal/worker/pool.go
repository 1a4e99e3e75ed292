package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/socialismbuilder/ContextFlow/internal/config"
	"github.com/socialismbuilder/ContextFlow/internal/queue"
	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// Generator produces sentence pairs for a keyword. Implemented by
// generation.Client.
type Generator interface {
	Generate(ctx context.Context, keyword string, learner config.Learner) ([]sentence.Pair, error)
}

// Cache is the subset of the sentence cache the pool writes to.
type Cache interface {
	Merge(keyword string, pairs []sentence.Pair) error
}

// Recorder receives per-outcome statistics. May be nil.
type Recorder interface {
	RecordGeneration(pairCount int)
	RecordFailure()
}

// Pool runs a fixed number of worker goroutines that drain the task queue.
// Failed generations are logged and dropped; the keyword simply stays
// uncached and will be re-requested the next time it is needed.
type Pool struct {
	queue    *queue.TaskQueue
	gen      Generator
	cache    Cache
	store    *config.Store
	recorder Recorder
	notify   func(queuedRemaining int)
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPool wires a Pool over the given queue, generator and cache. notify,
// recorder and logger may be nil.
func NewPool(q *queue.TaskQueue, gen Generator, c Cache, store *config.Store,
	recorder Recorder, notify func(int), logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:    q,
		gen:      gen,
		cache:    c,
		store:    store,
		recorder: recorder,
		notify:   notify,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Size returns the worker count for cfg: an explicit override wins,
// otherwise 1 for a local inference server and 3 for a remote API.
func Size(cfg config.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	if config.IsLocalEndpoint(cfg.APIURL) {
		return 1
	}
	return 3
}

// Start launches the worker goroutines. The pool size is fixed at start.
func (p *Pool) Start() {
	n := Size(p.store.Snapshot())
	p.logger.Debug("starting worker pool", "workers", n)
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		keyword, ok := p.queue.Next()
		if !ok {
			return
		}
		p.process(keyword)
	}
}

func (p *Pool) process(keyword string) {
	defer func() {
		p.queue.Done(keyword)
		if p.notify != nil {
			p.notify(p.queue.Len())
		}
	}()

	// Snapshot the learner preferences fresh for every generation so that
	// settings edits apply to the next call.
	learner := p.store.Snapshot().Learner()

	pairs, err := p.gen.Generate(p.ctx, keyword, learner)
	if err != nil {
		p.logger.Warn("sentence generation failed", "keyword", keyword, "error", err)
		if p.recorder != nil {
			p.recorder.RecordFailure()
		}
		return
	}
	if len(pairs) == 0 {
		p.logger.Warn("generation returned no usable pairs", "keyword", keyword)
		if p.recorder != nil {
			p.recorder.RecordFailure()
		}
		return
	}

	if err := p.cache.Merge(keyword, pairs); err != nil {
		p.logger.Error("failed to cache generated pairs", "keyword", keyword, "error", err)
		return
	}
	if p.recorder != nil {
		p.recorder.RecordGeneration(len(pairs))
	}
}

// Shutdown closes the queue, discarding queued-but-unstarted work, and
// waits up to timeout for in-flight generations to finish and commit their
// results. Only after the bound expires are remaining requests cancelled.
// Safe to call more than once.
func (p *Pool) Shutdown(timeout time.Duration) {
	p.once.Do(func() {
		p.queue.Close()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		p.logger.Warn("worker pool shutdown timed out")
	}
	p.cancel()
}
