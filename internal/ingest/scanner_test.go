package ingest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payloadCollector struct {
	mu       sync.Mutex
	payloads []string
}

func (c *payloadCollector) emit(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, raw)
}

func (c *payloadCollector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.payloads))
	copy(out, c.payloads)
	return out
}

func typeString(a *KeystrokeAssembler, s string) {
	for _, r := range s {
		a.Key(r)
	}
}

func TestEnterTerminatesPayload(t *testing.T) {
	c := &payloadCollector{}
	a := NewKeystrokeAssembler(DefaultFlushInterval, c.emit)
	defer a.Close()

	typeString(a, "MAT-100|PO-555|10\n")

	assert.Equal(t, []string{"MAT-100|PO-555|10"}, c.all())
}

func TestTabTerminatesPayload(t *testing.T) {
	c := &payloadCollector{}
	a := NewKeystrokeAssembler(DefaultFlushInterval, c.emit)
	defer a.Close()

	typeString(a, "ASP1234\tMO-2024-0001\r")

	assert.Equal(t, []string{"ASP1234", "MO-2024-0001"}, c.all())
}

func TestInactivityFlush(t *testing.T) {
	c := &payloadCollector{}
	a := NewKeystrokeAssembler(20*time.Millisecond, c.emit)
	defer a.Close()

	typeString(a, "MAT-100")

	require.Eventually(t, func() bool {
		return len(c.all()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "MAT-100", c.all()[0])
}

func TestKeystrokesResetIdleTimer(t *testing.T) {
	c := &payloadCollector{}
	a := NewKeystrokeAssembler(50*time.Millisecond, c.emit)
	defer a.Close()

	// Keep typing faster than the idle interval; nothing may flush
	// until the stream pauses.
	for i := 0; i < 5; i++ {
		a.Key('A')
		time.Sleep(20 * time.Millisecond)
	}
	assert.Empty(t, c.all())

	require.Eventually(t, func() bool {
		return len(c.all()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "AAAAA", c.all()[0])
}

func TestEmptyPayloadNotEmitted(t *testing.T) {
	c := &payloadCollector{}
	a := NewKeystrokeAssembler(DefaultFlushInterval, c.emit)
	defer a.Close()

	a.Key('\n')
	a.Key('\n')
	a.Flush()

	assert.Empty(t, c.all())
}

func TestCloseDiscardsPartialPayload(t *testing.T) {
	c := &payloadCollector{}
	a := NewKeystrokeAssembler(20*time.Millisecond, c.emit)

	typeString(a, "MAT-1")
	a.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, c.all())
}
