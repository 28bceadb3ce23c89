// Package worker runs detached work that must outlive the request that started it.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/aria-bots/pkg/logging"
)

var (
	// ErrQueueFull is returned by Submit when every slot is taken.
	ErrQueueFull = errors.New("worker: queue full")
	// ErrStopped is returned by Submit once the dispatcher is shutting down.
	ErrStopped = errors.New("worker: dispatcher stopped")
)

const (
	defaultWorkerCount = 4
	defaultQueueSize   = 64
	defaultTaskTimeout = 2 * time.Minute
)

// Task is one unit of detached work.
type Task struct {
	Name string
	Key  string
	Run  func(ctx context.Context) error
}

// TaskError reports a failed task on the error channel.
type TaskError struct {
	Task string
	Key  string
	Err  error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("worker: task %s (%s): %v", e.Task, e.Key, e.Err)
}

func (e TaskError) Unwrap() error { return e.Err }

// Dispatcher is a bounded goroutine pool. Failures are published on Errors instead of
// being dropped; when nobody drains the channel fast enough they are logged.
type Dispatcher struct {
	tasks   chan Task
	errs    chan TaskError
	cfg     dispatcherConfig
	logger  *logging.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

type dispatcherConfig struct {
	workers     int
	queueSize   int
	taskTimeout time.Duration
}

// Option customizes a Dispatcher.
type Option func(*dispatcherConfig)

// WithWorkerCount sets the number of concurrent goroutines.
func WithWorkerCount(count int) Option {
	return func(cfg *dispatcherConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithQueueSize sets how many tasks may wait for a worker.
func WithQueueSize(size int) Option {
	return func(cfg *dispatcherConfig) {
		if size > 0 {
			cfg.queueSize = size
		}
	}
}

// WithTaskTimeout bounds each task's context.
func WithTaskTimeout(d time.Duration) Option {
	return func(cfg *dispatcherConfig) {
		if d > 0 {
			cfg.taskTimeout = d
		}
	}
}

// NewDispatcher builds an idle dispatcher; call Start to run it.
func NewDispatcher(logger *logging.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	cfg := dispatcherConfig{
		workers:     defaultWorkerCount,
		queueSize:   defaultQueueSize,
		taskTimeout: defaultTaskTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Dispatcher{
		tasks:  make(chan Task, cfg.queueSize),
		errs:   make(chan TaskError, cfg.queueSize),
		cfg:    cfg,
		logger: logger,
	}
}

// Errors delivers task failures. It is closed after Wait returns.
func (d *Dispatcher) Errors() <-chan TaskError {
	return d.errs
}

// Start launches the workers. Cancelling ctx stops intake; queued tasks still run.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx, i+1)
	}
	go func() {
		<-ctx.Done()
		d.stop()
	}()
}

// Submit queues task without blocking.
func (d *Dispatcher) Submit(task Task) error {
	if task.Run == nil {
		return errors.New("worker: task has no run func")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Wait blocks until every worker has exited, then closes the error channel.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
	close(d.errs)
}

func (d *Dispatcher) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	close(d.tasks)
}

func (d *Dispatcher) run(ctx context.Context, workerID int) {
	defer d.wg.Done()
	d.logger.Debug("dispatcher worker started", "worker_id", workerID)

	base := context.WithoutCancel(ctx)
	for task := range d.tasks {
		d.execute(base, task)
	}
	d.logger.Debug("dispatcher worker stopping", "worker_id", workerID)
}

func (d *Dispatcher) execute(base context.Context, task Task) {
	ctx, cancel := context.WithTimeout(base, d.cfg.taskTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return task.Run(ctx)
	}()
	if err == nil {
		return
	}

	taskErr := TaskError{Task: task.Name, Key: task.Key, Err: err}
	select {
	case d.errs <- taskErr:
	default:
		d.logger.Error("detached task failed", "task", task.Name, "key", task.Key, "error", err)
	}
}
