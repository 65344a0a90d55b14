// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/infra/logging"
)

var (
	ErrQueueFull   = errors.New("worker queue full")
	ErrPoolStopped = errors.New("worker pool stopped")
)

type Task func(ctx context.Context) error

// Pool runs tasks on a fixed set of workers. Tasks submitted with the same
// key always run on the same worker, one after another, so events of one
// chat are handled in arrival order.
type Pool struct {
	wg       sync.WaitGroup
	queues   []chan Task
	quit     chan struct{}
	stopOnce sync.Once
	log      *zerolog.Logger
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 4
	}
	if logger == nil {
		logger = logging.Nop()
	}
	queues := make([]chan Task, workers)
	for i := range queues {
		queues[i] = make(chan Task, queueSize)
	}
	return &Pool{queues: queues, quit: make(chan struct{}), log: logging.Component(logger, "worker")}
}

func (p *Pool) Start(ctx context.Context) {
	for i, q := range p.queues {
		p.wg.Add(1)
		go func(id int, q chan Task) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					p.drain(ctx, id, q)
					return
				case task := <-q:
					p.run(ctx, id, task)
				}
			}
		}(i, q)
	}
}

// drain runs what is already queued so accepted events are not lost on shutdown.
func (p *Pool) drain(ctx context.Context, id int, q chan Task) {
	for {
		select {
		case task := <-q:
			p.run(ctx, id, task)
		default:
			return
		}
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	if task == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Int("worker", id).Interface("panic", rec).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Error().Err(err).Int("worker", id).Msg("task error")
	}
}

// Stop drains the queues and waits for the workers to exit.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Pool) queueFor(key int64) chan Task {
	return p.queues[uint64(key)%uint64(len(p.queues))]
}

// Submit never blocks; it returns ErrQueueFull when the key's worker is saturated.
func (p *Pool) Submit(key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}
	select {
	case p.queueFor(key) <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitWait blocks until the task is queued, the pool stops or ctx is done.
func (p *Pool) SubmitWait(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.queueFor(key) <- task:
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
