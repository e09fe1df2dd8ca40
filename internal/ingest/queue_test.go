package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("outbound-scan-service-test")
	cfg.Level = logging.LevelError
	return logging.New(cfg)
}

func TestQueueAppliesScansInArrivalOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	q := NewQueue(func(_ context.Context, scan Scan) {
		mu.Lock()
		seen = append(seen, scan.Raw)
		mu.Unlock()
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.Enqueue(Scan{StationID: "ST-01", Raw: "B006006|PO001|50|26082025"})
	q.Enqueue(Scan{StationID: "ST-01", Raw: "B006006|PO001|20|26082025"})
	q.Enqueue(Scan{StationID: "ST-01", Raw: "B007007|PO001|10"})
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, "B006006|PO001|50|26082025", seen[0])
	assert.Equal(t, "B006006|PO001|20|26082025", seen[1])
	assert.Equal(t, "B007007|PO001|10", seen[2])
}

func TestQueueNeverRunsHandlersConcurrently(t *testing.T) {
	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	q := NewQueue(func(_ context.Context, _ Scan) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	for i := 0; i < 20; i++ {
		q.Enqueue(Scan{StationID: "ST-01", Raw: "B006006|PO001|1"})
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxInFlight, "scans for one station must never overlap")
}

func TestQueueEnqueueDoesNotBlockProducer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue(func(_ context.Context, _ Scan) {
		<-block
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.Enqueue(Scan{StationID: "ST-01", Raw: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked while the worker was busy")
	}

	close(block)
	q.Stop()
}

func TestQueueDropsScansAfterStop(t *testing.T) {
	var mu sync.Mutex
	count := 0

	q := NewQueue(func(_ context.Context, _ Scan) {
		mu.Lock()
		count++
		mu.Unlock()
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.Enqueue(Scan{StationID: "ST-01", Raw: "before"})
	q.Stop()
	q.Enqueue(Scan{StationID: "ST-01", Raw: "after"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}
