package ingest

import (
	"strings"
	"sync"
	"time"
)

// DefaultFlushInterval is how long the assembler waits after the last
// keystroke before treating the accumulated text as a complete payload.
// Hardware scanners type far faster than a human, so a pause means the
// scan is done.
const DefaultFlushInterval = 150 * time.Millisecond

// KeystrokeAssembler turns the keystroke stream of a keyboard-wedge
// scanner into complete raw payloads. A payload ends on Enter or Tab,
// or after DefaultFlushInterval of inactivity. Assembled payloads are
// handed to the emit callback on the assembler's timer goroutine or the
// caller's goroutine, never both at once.
type KeystrokeAssembler struct {
	mu       sync.Mutex
	buf      strings.Builder
	timer    *time.Timer
	interval time.Duration
	emit     func(raw string)
	closed   bool
}

// NewKeystrokeAssembler creates an assembler emitting to the given
// callback. interval <= 0 selects DefaultFlushInterval.
func NewKeystrokeAssembler(interval time.Duration, emit func(raw string)) *KeystrokeAssembler {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &KeystrokeAssembler{interval: interval, emit: emit}
}

// Key feeds one keystroke. Enter ('\r' or '\n') and Tab terminate the
// current payload immediately; anything else accumulates and re-arms
// the inactivity timer.
func (a *KeystrokeAssembler) Key(r rune) {
	a.mu.Lock()

	if a.closed {
		a.mu.Unlock()
		return
	}

	switch r {
	case '\r', '\n', '\t':
		raw := a.takeLocked()
		a.mu.Unlock()
		if raw != "" {
			a.emit(raw)
		}
		return
	}

	a.buf.WriteRune(r)
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.interval, a.flushOnIdle)
	a.mu.Unlock()
}

// Flush emits whatever is buffered without waiting for a terminator.
func (a *KeystrokeAssembler) Flush() {
	a.mu.Lock()
	raw := a.takeLocked()
	a.mu.Unlock()
	if raw != "" {
		a.emit(raw)
	}
}

// Close stops the timer and discards any partial payload.
func (a *KeystrokeAssembler) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.buf.Reset()
}

func (a *KeystrokeAssembler) flushOnIdle() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	raw := a.takeLocked()
	a.mu.Unlock()
	if raw != "" {
		a.emit(raw)
	}
}

func (a *KeystrokeAssembler) takeLocked() string {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	raw := a.buf.String()
	a.buf.Reset()
	return raw
}
