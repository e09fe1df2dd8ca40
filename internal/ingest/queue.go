package ingest

import (
	"context"
	"sync"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"
)

// Scan is one raw capture queued for processing: the undecoded payload
// plus where it came from.
type Scan struct {
	StationID string
	Raw       string
	Source    string
}

// Handler consumes one queued scan. Handlers run on the queue's single
// worker goroutine, so two scans for the same queue never overlap.
type Handler func(ctx context.Context, scan Scan)

// Queue serializes scan processing for one station. Enqueue never
// blocks the producer; scans are applied strictly in arrival order by
// one worker goroutine. A burst of rapid scans therefore lands as a
// sequence of single-record appends, never a torn or interleaved state.
type Queue struct {
	mu      sync.Mutex
	pending []Scan
	wake    chan struct{}
	done    chan struct{}
	stopped bool

	handler Handler
	logger  *logging.Logger
}

// NewQueue creates a stopped queue; call Start to begin draining.
func NewQueue(handler Handler, logger *logging.Logger) *Queue {
	return &Queue{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		handler: handler,
		logger:  logger.WithComponent("scan_queue"),
	}
}

// Enqueue appends a scan and returns immediately. Scans enqueued after
// Stop are dropped.
func (q *Queue) Enqueue(scan Scan) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		q.logger.Warn("scan dropped, queue stopped",
			"station_id", scan.StationID)
		return
	}
	q.pending = append(q.pending, scan)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len reports the number of scans waiting to be processed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the worker goroutine. The worker drains until ctx is
// cancelled or Stop is called, finishing the scan in flight first.
func (q *Queue) Start(ctx context.Context) {
	go q.run(ctx)
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)

	for {
		scan, ok := q.next()
		if ok {
			q.handler(ctx, scan)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}

		q.mu.Lock()
		stopped := q.stopped
		q.mu.Unlock()
		if stopped {
			q.drain(ctx)
			return
		}
	}
}

func (q *Queue) next() (Scan, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Scan{}, false
	}
	scan := q.pending[0]
	q.pending = q.pending[1:]
	return scan, true
}

func (q *Queue) drain(ctx context.Context) {
	for {
		scan, ok := q.next()
		if !ok {
			return
		}
		q.handler(ctx, scan)
	}
}

// Stop rejects further scans, lets the worker drain what is already
// queued, and waits for it to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.stopped = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
}
