package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"
	"github.com/wms-platform/outbound-scan-service/pkg/metrics"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
	"github.com/wms-platform/outbound-scan-service/internal/ingest"
)

// stationState bundles everything the service tracks for one open
// station. The mutex guards session, buffer membership and lastScan;
// scans arrive on the station's queue goroutine while state reads and
// commits arrive on HTTP handler goroutines.
type stationState struct {
	mu       sync.Mutex
	session  *domain.ScanSession
	buffer   *domain.PendingScanBuffer
	queue    *ingest.Queue
	lastScan *ScanOutcomeDTO
}

// StationService owns the live scan sessions. Each station gets its own
// ingest queue so scans for one station are applied strictly in arrival
// order while stations never block each other.
type StationService struct {
	mu       sync.RWMutex
	stations map[string]*stationState

	outboundRepo domain.OutboundRepository
	snapshots    domain.SnapshotStore
	reconciler   *ReconcileService
	publisher    domain.EventPublisher
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewStationService creates a new StationService
func NewStationService(
	outboundRepo domain.OutboundRepository,
	snapshots domain.SnapshotStore,
	reconciler *ReconcileService,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *StationService {
	return &StationService{
		stations:     make(map[string]*stationState),
		outboundRepo: outboundRepo,
		snapshots:    snapshots,
		reconciler:   reconciler,
		publisher:    publisher,
		metrics:      m,
		logger:       logger.WithComponent("station_service"),
	}
}

// OpenStation starts a scan session for a station, restoring any pending
// buffer snapshot left by a previous run. Opening an already open
// station is idempotent and returns its current state.
func (s *StationService) OpenStation(ctx context.Context, cmd OpenStationCommand) (*StationStateDTO, error) {
	if cmd.StationID == "" {
		return nil, fmt.Errorf("station ID is required")
	}

	s.mu.Lock()
	if st, ok := s.stations[cmd.StationID]; ok {
		s.mu.Unlock()
		return s.stateDTO(st), nil
	}

	session := domain.NewScanSession(cmd.StationID, cmd.Factory)
	buffer := domain.NewPendingScanBuffer(cmd.StationID, s.snapshots)
	st := &stationState{session: session, buffer: buffer}
	st.queue = ingest.NewQueue(func(ctx context.Context, scan ingest.Scan) {
		s.processScan(ctx, st, scan)
	}, s.logger)
	s.stations[cmd.StationID] = st
	s.mu.Unlock()

	restored, err := buffer.Restore()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to restore pending buffer snapshot",
			"stationId", cmd.StationID)
	}

	st.queue.Start(context.Background())

	s.logger.Info("Station opened",
		"stationId", cmd.StationID,
		"factory", cmd.Factory,
		"operator", cmd.Operator,
		"restoredRecords", len(restored),
	)
	s.publish(ctx, &domain.StationOpenedEvent{
		StationID:   cmd.StationID,
		Factory:     cmd.Factory,
		Operator:    cmd.Operator,
		Restored:    len(restored),
		OccurredAt_: time.Now().UTC(),
	})

	return s.stateDTO(st), nil
}

// IngestScan submits a raw scan for asynchronous processing. Ordering
// within a station is the enqueue order; the call itself never blocks
// on parsing or persistence.
func (s *StationService) IngestScan(ctx context.Context, cmd IngestScanCommand) error {
	st, err := s.station(cmd.StationID)
	if err != nil {
		return err
	}

	source := domain.ScanSource(cmd.Source)
	if source != domain.SourceCamera {
		source = domain.SourceScanner
	}

	st.queue.Enqueue(ingest.Scan{
		StationID: cmd.StationID,
		Raw:       cmd.Raw,
		Source:    string(source),
	})
	return nil
}

// processScan classifies one raw payload against the session's current
// stage and applies it. Runs on the station's queue goroutine only.
func (s *StationService) processScan(ctx context.Context, st *stationState, scan ingest.Scan) {
	st.mu.Lock()
	defer st.mu.Unlock()

	outcome := ScanOutcomeDTO{Raw: scan.Raw, At: time.Now().UTC()}
	payload, err := domain.Parse(scan.Raw, st.session.ParseContext())
	if err != nil {
		outcome.Reason = err.Error()
		st.lastScan = &outcome
		s.metrics.RecordScanParseFailure(string(st.session.Stage))
		s.logger.Warn("Unrecognized scan payload",
			"stationId", scan.StationID,
			"stage", st.session.Stage,
			"error", err.Error(),
		)
		return
	}

	outcome.Kind = string(payload.Kind())
	switch p := payload.(type) {
	case domain.ProductionOrderPayload:
		err = st.session.CaptureProductionOrder(p.OrderID)
	case domain.BadgePayload:
		err = st.session.CaptureBadge(p.BadgeID)
	case domain.MaterialPickPayload:
		err = s.captureMaterial(ctx, st, p, domain.ScanSource(scan.Source))
	default:
		err = fmt.Errorf("unhandled payload kind %q", payload.Kind())
	}

	if err != nil {
		outcome.Reason = err.Error()
		st.lastScan = &outcome
		s.logger.Warn("Scan rejected",
			"stationId", scan.StationID,
			"kind", outcome.Kind,
			"reason", err.Error(),
		)
		return
	}

	outcome.Accepted = true
	st.lastScan = &outcome
	s.metrics.RecordScanIngested(scan.Source, outcome.Kind)
}

func (s *StationService) captureMaterial(ctx context.Context, st *stationState, pick domain.MaterialPickPayload, source domain.ScanSource) error {
	if !st.session.AcceptsMaterial() {
		return domain.ErrMaterialNotAccepted
	}

	record := domain.NewScanRecord(pick, st.session, source, time.Now().UTC())
	if err := st.buffer.Append(record); err != nil {
		return fmt.Errorf("failed to buffer scan record: %w", err)
	}

	s.metrics.SetPendingBufferSize(st.session.StationID, st.buffer.Len())
	s.logger.ScanCaptured(ctx, st.session.StationID, pick.MaterialCode, pick.Quantity, st.buffer.Len())
	return nil
}

// AttachCamera bridges a decoded-text source into the station's scan
// queue. The returned feed is started; the caller owns stopping it.
func (s *StationService) AttachCamera(stationID string, source ingest.DecodedTextSource) (*ingest.CameraFeed, error) {
	st, err := s.station(stationID)
	if err != nil {
		return nil, err
	}

	feed := ingest.NewCameraFeed(stationID, source, st.queue, s.logger)
	if err := feed.Start(); err != nil {
		return nil, err
	}
	return feed, nil
}

// Commit consolidates the pending buffer, persists it atomically and
// reconciles the result against inventory. The buffer is only cleared
// after persistence succeeds; a storage failure leaves every record in
// place for a retry.
func (s *StationService) Commit(ctx context.Context, cmd CommitCommand) (*CommitResultDTO, error) {
	st, err := s.station(cmd.StationID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	pending := st.buffer.Snapshot()
	if len(pending) == 0 {
		return nil, domain.ErrNothingToCommit
	}

	consolidated := domain.Consolidate(pending)
	if err := s.outboundRepo.InsertBatch(ctx, consolidated); err != nil {
		s.metrics.RecordOutboundCommit(false, len(consolidated))
		return nil, fmt.Errorf("failed to persist outbound batch: %w", err)
	}

	session := *st.session
	if err := st.buffer.Clear(); err != nil {
		s.logger.WithError(err).Warn("Failed to clear buffer snapshot after commit",
			"stationId", cmd.StationID)
	}
	st.session.Reset()
	st.lastScan = nil
	s.metrics.SetPendingBufferSize(cmd.StationID, 0)

	committedAt := time.Now().UTC()
	total := domain.TotalQuantity(consolidated)
	s.metrics.RecordOutboundCommit(true, len(consolidated))
	s.logger.Info("Outbound batch committed",
		"stationId", cmd.StationID,
		"productionOrder", session.ProductionOrder,
		"records", len(consolidated),
		"totalQuantity", total,
	)
	s.publish(ctx, &domain.OutboundCommittedEvent{
		StationID:       cmd.StationID,
		ProductionOrder: session.ProductionOrder,
		BadgeID:         session.BadgeID,
		RecordCount:     len(consolidated),
		TotalQuantity:   total,
		CommittedAt:     committedAt,
	})

	summary := s.reconciler.Reconcile(ctx, consolidated)

	return &CommitResultDTO{
		StationID:     cmd.StationID,
		Persisted:     len(consolidated),
		TotalQuantity: total,
		Reconciled:    summary.Reconciled,
		Skipped:       summary.Skipped,
		Errors:        summary.Errors,
		CommittedAt:   committedAt,
	}, nil
}

// Reset discards the station's session setup and pending buffer.
func (s *StationService) Reset(ctx context.Context, cmd ResetCommand) (*StationStateDTO, error) {
	st, err := s.station(cmd.StationID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	discarded := st.buffer.Len()
	if err := st.buffer.Clear(); err != nil {
		s.logger.WithError(err).Warn("Failed to clear buffer snapshot on reset",
			"stationId", cmd.StationID)
	}
	factory := st.session.Factory
	st.session.Reset()
	st.lastScan = nil
	st.mu.Unlock()

	s.metrics.SetPendingBufferSize(cmd.StationID, 0)
	s.logger.Info("Station reset",
		"stationId", cmd.StationID,
		"discardedRecords", discarded,
	)
	s.publish(ctx, &domain.StationResetEvent{
		StationID:   cmd.StationID,
		Factory:     factory,
		Discarded:   discarded,
		OccurredAt_: time.Now().UTC(),
	})

	return s.stateDTO(st), nil
}

// GetState returns the live state of a station.
func (s *StationService) GetState(ctx context.Context, query GetStationQuery) (*StationStateDTO, error) {
	st, err := s.station(query.StationID)
	if err != nil {
		return nil, err
	}
	return s.stateDTO(st), nil
}

// Close stops every station queue, draining scans already enqueued.
func (s *StationService) Close() {
	s.mu.Lock()
	stations := make([]*stationState, 0, len(s.stations))
	for _, st := range s.stations {
		stations = append(stations, st)
	}
	s.mu.Unlock()

	for _, st := range stations {
		st.queue.Stop()
	}
}

func (s *StationService) station(stationID string) (*stationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stations[stationID]
	if !ok {
		return nil, domain.ErrStationNotFound
	}
	return st, nil
}

func (s *StationService) stateDTO(st *stationState) *StationStateDTO {
	st.mu.Lock()
	defer st.mu.Unlock()

	pending := st.buffer.Snapshot()
	records := make([]ScanRecordDTO, 0, len(pending))
	for _, r := range pending {
		records = append(records, ToScanRecordDTO(r))
	}

	dto := &StationStateDTO{
		StationID:       st.session.StationID,
		Factory:         st.session.Factory,
		Stage:           string(st.session.Stage),
		ProductionOrder: st.session.ProductionOrder,
		BadgeID:         st.session.BadgeID,
		StartedAt:       st.session.StartedAt,
		PendingCount:    len(records),
		PendingRecords:  records,
	}
	if st.lastScan != nil {
		outcome := *st.lastScan
		dto.LastScan = &outcome
	}
	return dto
}

func (s *StationService) publish(ctx context.Context, event domain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish station event", "eventType", event.EventType())
	}
}
