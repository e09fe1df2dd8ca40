package camera

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"
)

// TCPSource accepts TCP connections from a barcode camera and emits one
// decoded string per received line. Cognex-style devices push decoded
// results as newline-terminated text; "NO_READ" lines are discarded.
type TCPSource struct {
	addr   string
	logger *logging.Logger

	mu        sync.Mutex
	listener  net.Listener
	onDecoded func(text string)
	cancel    context.CancelFunc
}

// NewTCPSource creates a source listening on addr, e.g. ":9101".
func NewTCPSource(addr string, logger *logging.Logger) *TCPSource {
	return &TCPSource{
		addr:   addr,
		logger: logger.WithComponent("camera_tcp_source"),
	}
}

// Subscribe starts the listener and delivers each decoded line to the
// callback. Only one subscriber is supported.
func (s *TCPSource) Subscribe(onDecoded func(text string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("source already subscribed")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.listener = listener
	s.onDecoded = onDecoded
	s.cancel = cancel

	go s.acceptLoop(ctx, listener)

	s.logger.Info("Camera source listening", "addr", s.addr)
	return nil
}

// Stop closes the listener and all device connections.
func (s *TCPSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	s.cancel()
	err := s.listener.Close()
	s.listener = nil
	return err
}

func (s *TCPSource) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logger.WithError(err).Warn("Accept failed")
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}

func (s *TCPSource) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Info("Camera connected", "remote", remote)

	reader := bufio.NewReader(conn)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		line, err := reader.ReadString('\n')
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			s.logger.Info("Camera disconnected", "remote", remote)
			return
		}

		text := strings.TrimSpace(line)
		if text == "" || strings.EqualFold(text, "NO_READ") {
			continue
		}

		s.mu.Lock()
		onDecoded := s.onDecoded
		s.mu.Unlock()
		if onDecoded != nil {
			onDecoded(text)
		}
	}
}
