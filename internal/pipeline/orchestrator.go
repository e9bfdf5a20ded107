package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dgallion1/docmock/internal/config"
	"github.com/dgallion1/docmock/internal/store"
)

// Orchestrator manages the document ingestion pipeline: an unbounded FIFO
// queue drained by one dispatcher that runs at most ProcessingConcurrentLimit
// documents at a time.
type Orchestrator struct {
	jobs   *JobStore
	queue  *fifo
	sem    *semaphore.Weighted
	worker *Worker
	repo   Repository
	log    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline; call Start to begin processing.
func NewOrchestrator(cfg config.Config, worker *Worker, repo Repository, log *slog.Logger) *Orchestrator {
	limit := cfg.ProcessingConcurrentLimit
	if limit <= 0 {
		limit = 2
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  newFIFO(),
		sem:    semaphore.NewWeighted(int64(limit)),
		worker: worker,
		repo:   repo,
		log:    log,
	}
}

// Start launches the dispatcher.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.dispatch(workerCtx)
	}()

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

func (o *Orchestrator) dispatch(ctx context.Context) {
	defer o.abandonQueued(ctx)
	for {
		job, ok := o.queue.pop(ctx)
		if !ok {
			return
		}
		if err := o.sem.Acquire(ctx, 1); err != nil {
			o.abandon(ctx, job)
			return
		}
		if ctx.Err() != nil {
			o.sem.Release(1)
			o.abandon(ctx, job)
			return
		}
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			defer o.sem.Release(1)
			o.worker.Process(ctx, job)
		}()
	}
}

// abandonQueued fails every job still waiting when the dispatcher stops.
func (o *Orchestrator) abandonQueued(ctx context.Context) {
	for _, job := range o.queue.drain() {
		o.abandon(ctx, job)
	}
}

func (o *Orchestrator) abandon(ctx context.Context, job *Job) {
	job.AddError("interrupted by shutdown before processing started")
	job.SetStatus(store.StatusFailed, "failed")
	job.releaseData()
	if err := o.repo.SaveUploadedFile(context.WithoutCancel(ctx), job.Record()); err != nil {
		o.log.Error("save upload record failed", "file_id", job.FileID, "error", err)
	}
	o.log.Warn("document abandoned", "file_id", job.FileID, "file_name", job.FileName)
}

// Stop cancels running documents and waits for them to record their state.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit records the upload as PENDING and queues it.
func (o *Orchestrator) Submit(ctx context.Context, job *Job) error {
	if err := o.repo.SaveUploadedFile(ctx, job.Record()); err != nil {
		return fmt.Errorf("record upload %s: %w", job.FileName, err)
	}
	o.jobs.Put(job)
	o.queue.push(job)
	o.log.Info("document queued", "file_id", job.FileID, "file_name", job.FileName, "full_ai", job.FullAI)
	return nil
}

// GetJob returns a job by file id.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of documents waiting for the dispatcher.
func (o *Orchestrator) QueueDepth() int {
	return o.queue.len()
}

// fifo is an unbounded queue of jobs.
type fifo struct {
	mu    sync.Mutex
	items []*Job
	ready chan struct{}
}

func newFIFO() *fifo {
	return &fifo{ready: make(chan struct{}, 1)}
}

func (q *fifo) push(j *Job) {
	q.mu.Lock()
	q.items = append(q.items, j)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop blocks until a job is available or ctx ends.
func (q *fifo) pop(ctx context.Context) (*Job, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			j := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return j, true
		}
		q.mu.Unlock()
		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// drain empties the queue and returns what was in it.
func (q *fifo) drain() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *fifo) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
