package ingest

import (
	"strings"
	"sync"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"
)

// DecodedTextSource is a barcode decoder that pushes decoded strings as
// they are recognized. Implementations wrap whatever decoder hardware
// or library a station runs; the service only sees the decoded text.
type DecodedTextSource interface {
	// Subscribe registers the callback invoked once per decoded
	// barcode. Only one subscriber is supported.
	Subscribe(onDecoded func(text string)) error
	// Stop tears down the decoder and stops callbacks.
	Stop() error
}

// CameraFeed bridges a decoded-text source into a station's scan queue.
// Decoded strings enter the same queue as scanner payloads, so camera
// and scanner captures are serialized together in arrival order.
type CameraFeed struct {
	stationID string
	source    DecodedTextSource
	queue     *Queue
	logger    *logging.Logger

	mu      sync.Mutex
	running bool
}

// NewCameraFeed wires a decoder to a station queue.
func NewCameraFeed(stationID string, source DecodedTextSource, queue *Queue, logger *logging.Logger) *CameraFeed {
	return &CameraFeed{
		stationID: stationID,
		source:    source,
		queue:     queue,
		logger:    logger.WithComponent("camera_feed"),
	}
}

// Start subscribes to the decoder. Blank decodes are dropped before
// they reach the queue.
func (f *CameraFeed) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return nil
	}

	err := f.source.Subscribe(func(text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		f.queue.Enqueue(Scan{
			StationID: f.stationID,
			Raw:       text,
			Source:    "camera",
		})
	})
	if err != nil {
		return err
	}

	f.running = true
	f.logger.Info("camera feed started", "station_id", f.stationID)
	return nil
}

// Stop tears down the decoder subscription.
func (f *CameraFeed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return nil
	}
	f.running = false
	return f.source.Stop()
}
