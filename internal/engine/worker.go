package engine

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/quotelab/marketsim/internal/domain"
)

// poison is the sentinel order that terminates the worker loop. Its nil
// uuid cannot collide with any real order id.
var poison = &domain.Order{}

// Worker is the dedicated-worker front door: producers enqueue onto an
// unbounded FIFO queue and a single worker goroutine drains it, one
// order at a time, through the engine's critical section. Read-only
// queries still go to the engine directly and take its lock. Every
// order enqueued strictly before Stop is processed before the worker
// exits.
type Worker struct {
	engine *Engine

	mu      sync.Mutex
	cond    *sync.Cond
	q       *queue.Queue
	stopped bool
}

// NewWorker creates a worker front door over the given engine. Start it
// with go w.Run().
func NewWorker(e *Engine) *Worker {
	w := &Worker{engine: e, q: queue.New()}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Submit enqueues an order for the worker. It never blocks the producer
// and is a no-op after Stop.
func (w *Worker) Submit(o *domain.Order) {
	if o == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.q.Add(o)
	w.cond.Signal()
}

// Stop enqueues the sentinel. The worker drains everything already
// queued, then exits, even if it was blocked on an empty queue.
// Idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	w.q.Add(poison)
	w.cond.Signal()
}

// Run processes orders until the sentinel is dequeued. Run from a
// dedicated goroutine; there must be exactly one.
func (w *Worker) Run() {
	for {
		o := w.next()
		if o == poison {
			return
		}
		w.engine.Submit(o)
	}
}

// next blocks until an order is available.
func (w *Worker) next() *domain.Order {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.q.Length() == 0 {
		w.cond.Wait()
	}
	return w.q.Remove().(*domain.Order)
}
