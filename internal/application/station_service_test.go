package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"
	"github.com/wms-platform/outbound-scan-service/pkg/metrics"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
	"github.com/wms-platform/outbound-scan-service/internal/ingest"
)

type mockOutboundRepo struct {
	mu          sync.Mutex
	insertFn    func(context.Context, []*domain.ConsolidatedOutboundRecord) error
	inserted    [][]*domain.ConsolidatedOutboundRecord
	findRecent  func(context.Context, int) ([]*domain.ConsolidatedOutboundRecord, error)
	findByOrder func(context.Context, string, int) ([]*domain.ConsolidatedOutboundRecord, error)
}

func (m *mockOutboundRepo) InsertBatch(ctx context.Context, records []*domain.ConsolidatedOutboundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertFn != nil {
		if err := m.insertFn(ctx, records); err != nil {
			return err
		}
	}
	m.inserted = append(m.inserted, records)
	return nil
}

func (m *mockOutboundRepo) FindRecent(ctx context.Context, limit int) ([]*domain.ConsolidatedOutboundRecord, error) {
	if m.findRecent != nil {
		return m.findRecent(ctx, limit)
	}
	return nil, nil
}

func (m *mockOutboundRepo) FindByProductionOrder(ctx context.Context, productionOrder string, limit int) ([]*domain.ConsolidatedOutboundRecord, error) {
	if m.findByOrder != nil {
		return m.findByOrder(ctx, productionOrder, limit)
	}
	return nil, nil
}

type mockInventoryRepo struct {
	mu           sync.Mutex
	candidatesFn func(context.Context, string, string, string) ([]*domain.InventoryItem, error)
	incrementFn  func(context.Context, string, int) error
	increments   map[string]int
}

func (m *mockInventoryRepo) FindCandidates(ctx context.Context, materialCode, poNumber, factory string) ([]*domain.InventoryItem, error) {
	if m.candidatesFn != nil {
		return m.candidatesFn(ctx, materialCode, poNumber, factory)
	}
	return nil, nil
}

func (m *mockInventoryRepo) IncrementExported(ctx context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementFn != nil {
		if err := m.incrementFn(ctx, id, quantity); err != nil {
			return err
		}
	}
	if m.increments == nil {
		m.increments = make(map[string]int)
	}
	m.increments[id] += quantity
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, e := range events {
		if err := m.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType())
	}
	return types
}

type memorySnapshots struct {
	mu        sync.Mutex
	snapshots map[string][]domain.ScanRecord
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{snapshots: make(map[string][]domain.ScanRecord)}
}

func (s *memorySnapshots) SaveSnapshot(stationID string, records []domain.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[stationID] = records
	return nil
}

func (s *memorySnapshots) LoadSnapshot(stationID string) ([]domain.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[stationID], nil
}

func (s *memorySnapshots) ClearSnapshot(stationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, stationID)
	return nil
}

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("outbound-scan-service-test")
	cfg.Level = logging.LevelError
	return logging.New(cfg)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("outbound-scan-service-test"))
}

type serviceFixture struct {
	service   *StationService
	outbound  *mockOutboundRepo
	inventory *mockInventoryRepo
	publisher *mockPublisher
	snapshots *memorySnapshots
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	outbound := &mockOutboundRepo{}
	inventory := &mockInventoryRepo{}
	publisher := &mockPublisher{}
	snapshots := newMemorySnapshots()
	m := testMetrics()
	logger := testLogger()

	reconciler := NewReconcileService(inventory, publisher, m, logger)
	service := NewStationService(outbound, snapshots, reconciler, publisher, m, logger)
	t.Cleanup(service.Close)

	return &serviceFixture{
		service:   service,
		outbound:  outbound,
		inventory: inventory,
		publisher: publisher,
		snapshots: snapshots,
	}
}

// scan pushes a raw payload through the station's queue handler
// synchronously, bypassing the queue goroutine for determinism.
func (f *serviceFixture) scan(t *testing.T, stationID, raw string) {
	t.Helper()
	st, err := f.service.station(stationID)
	require.NoError(t, err)
	f.service.processScan(context.Background(), st, ingest.Scan{
		StationID: stationID,
		Raw:       raw,
		Source:    string(domain.SourceScanner),
	})
}

func (f *serviceFixture) openReady(t *testing.T, stationID string) {
	t.Helper()
	_, err := f.service.OpenStation(context.Background(), OpenStationCommand{
		StationID: stationID,
		Factory:   "ASM001",
	})
	require.NoError(t, err)
	f.scan(t, stationID, "MO-2024-0099")
	f.scan(t, stationID, "ASP1234")
}

func TestOpenStationIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.service.OpenStation(context.Background(), OpenStationCommand{StationID: "ST-01", Factory: "ASM001"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageAwaitingProductionOrder), first.Stage)

	f.scan(t, "ST-01", "MO-2024-0001")

	again, err := f.service.OpenStation(context.Background(), OpenStationCommand{StationID: "ST-01", Factory: "ASM001"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageAwaitingBadge), again.Stage, "reopen must not reset an active session")
}

func TestOpenStationRestoresSnapshot(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	require.NoError(t, f.snapshots.SaveSnapshot("ST-02", []domain.ScanRecord{
		{MaterialCode: "MAT-1", PONumber: "PO-1", Quantity: 5, CapturedAt: now},
		{MaterialCode: "MAT-2", PONumber: "PO-1", Quantity: 3, CapturedAt: now.Add(time.Second)},
	}))

	state, err := f.service.OpenStation(context.Background(), OpenStationCommand{StationID: "ST-02", Factory: "ASM001"})
	require.NoError(t, err)

	assert.Equal(t, 2, state.PendingCount)
	assert.Equal(t, string(domain.StageAwaitingProductionOrder), state.Stage, "session metadata is re-entered, not restored")
}

func TestScanSetupSequence(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.OpenStation(context.Background(), OpenStationCommand{StationID: "ST-03", Factory: "ASM001"})
	require.NoError(t, err)

	f.scan(t, "ST-03", "MO-2024-0042")
	state, err := f.service.GetState(context.Background(), GetStationQuery{StationID: "ST-03"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageAwaitingBadge), state.Stage)
	assert.Equal(t, "MO-2024-0042", state.ProductionOrder)

	f.scan(t, "ST-03", "ASP4711")
	state, err = f.service.GetState(context.Background(), GetStationQuery{StationID: "ST-03"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageReadyForMaterial), state.Stage)
	assert.Equal(t, "ASP4711", state.BadgeID)
	require.NotNil(t, state.LastScan)
	assert.True(t, state.LastScan.Accepted)
}

func TestMaterialScanBuffered(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-04")

	f.scan(t, "ST-04", "MAT-100|PO-555|10|20240115")
	f.scan(t, "ST-04", "MAT-100|PO-555|5|20240115")

	state, err := f.service.GetState(context.Background(), GetStationQuery{StationID: "ST-04"})
	require.NoError(t, err)
	require.Equal(t, 2, state.PendingCount)
	assert.Equal(t, "MAT-100", state.PendingRecords[0].MaterialCode)
	assert.Equal(t, 10, state.PendingRecords[0].Quantity)
	assert.Equal(t, "MO-2024-0099", state.PendingRecords[0].ProductionOrder)
	assert.Equal(t, "ASP1234", state.PendingRecords[0].BadgeID)
	assert.True(t, state.PendingRecords[1].CapturedAt.After(state.PendingRecords[0].CapturedAt))
}

func TestMaterialRejectedBeforeSetup(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.OpenStation(context.Background(), OpenStationCommand{StationID: "ST-05", Factory: "ASM001"})
	require.NoError(t, err)
	f.scan(t, "ST-05", "MO-2024-0001")

	// A material payload scanned while the badge is still missing
	// fails badge validation and never reaches the buffer.
	f.scan(t, "ST-05", "MAT-100|PO-555|10")

	state, err := f.service.GetState(context.Background(), GetStationQuery{StationID: "ST-05"})
	require.NoError(t, err)
	assert.Equal(t, 0, state.PendingCount)
	assert.Equal(t, string(domain.StageAwaitingBadge), state.Stage)
	require.NotNil(t, state.LastScan)
	assert.False(t, state.LastScan.Accepted)
}

func TestIngestScanUnknownStation(t *testing.T) {
	f := newFixture(t)

	err := f.service.IngestScan(context.Background(), IngestScanCommand{StationID: "ST-99", Raw: "x"})
	assert.ErrorIs(t, err, domain.ErrStationNotFound)
}

func TestIngestScanAsync(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-06")

	require.NoError(t, f.service.IngestScan(context.Background(), IngestScanCommand{
		StationID: "ST-06",
		Raw:       "MAT-7|PO-7|7",
		Source:    "scanner",
	}))

	require.Eventually(t, func() bool {
		state, err := f.service.GetState(context.Background(), GetStationQuery{StationID: "ST-06"})
		return err == nil && state.PendingCount == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCommitPersistsClearsAndReconciles(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-07")

	lotID := primitive.NewObjectID()
	f.inventory.candidatesFn = func(ctx context.Context, materialCode, poNumber, factory string) ([]*domain.InventoryItem, error) {
		return []*domain.InventoryItem{
			{ID: lotID, MaterialCode: materialCode, PONumber: poNumber, BatchToken: "20240115", Quantity: 100},
		}, nil
	}

	f.scan(t, "ST-07", "MAT-100|PO-555|10|20240115")
	f.scan(t, "ST-07", "MAT-100|PO-555|5|20240115")

	result, err := f.service.Commit(context.Background(), CommitCommand{StationID: "ST-07"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Persisted, "same key merges into one outbound record")
	assert.Equal(t, 15, result.TotalQuantity)
	assert.Equal(t, 1, result.Reconciled)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Len(t, f.outbound.inserted, 1)
	assert.Equal(t, 15, f.inventory.increments[lotID.Hex()])

	state, err := f.service.GetState(context.Background(), GetStationQuery{StationID: "ST-07"})
	require.NoError(t, err)
	assert.Equal(t, 0, state.PendingCount)
	assert.Equal(t, string(domain.StageAwaitingProductionOrder), state.Stage)

	assert.Contains(t, f.publisher.eventTypes(), "outbound.batch.committed")
	assert.Contains(t, f.publisher.eventTypes(), "outbound.inventory.reconciled")
}

func TestCommitEmptyBuffer(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-08")

	result, err := f.service.Commit(context.Background(), CommitCommand{StationID: "ST-08"})
	assert.ErrorIs(t, err, domain.ErrNothingToCommit)
	assert.Nil(t, result)
}

func TestCommitInsertFailureKeepsBuffer(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-09")
	f.outbound.insertFn = func(ctx context.Context, records []*domain.ConsolidatedOutboundRecord) error {
		return errors.New("write concern timeout")
	}

	f.scan(t, "ST-09", "MAT-1|PO-1|3")

	_, err := f.service.Commit(context.Background(), CommitCommand{StationID: "ST-09"})
	require.Error(t, err)

	state, err := f.service.GetState(context.Background(), GetStationQuery{StationID: "ST-09"})
	require.NoError(t, err)
	assert.Equal(t, 1, state.PendingCount, "a failed commit must not lose scans")
	assert.Equal(t, string(domain.StageReadyForMaterial), state.Stage)
}

func TestCommitUnmatchedInventoryIsSkipNotError(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-10")

	f.scan(t, "ST-10", "MAT-404|PO-404|2")

	result, err := f.service.Commit(context.Background(), CommitCommand{StationID: "ST-10"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Persisted)
	assert.Equal(t, 0, result.Reconciled)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)
	assert.Contains(t, f.publisher.eventTypes(), "outbound.inventory.skipped")
}

func TestResetDiscardsSessionAndBuffer(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-11")
	f.scan(t, "ST-11", "MAT-1|PO-1|3")

	state, err := f.service.Reset(context.Background(), ResetCommand{StationID: "ST-11"})
	require.NoError(t, err)

	assert.Equal(t, 0, state.PendingCount)
	assert.Equal(t, string(domain.StageAwaitingProductionOrder), state.Stage)
	assert.Empty(t, state.ProductionOrder)
	assert.Empty(t, state.BadgeID)

	snapshot, err := f.snapshots.LoadSnapshot("ST-11")
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestPublishFailureDoesNotFailCommit(t *testing.T) {
	f := newFixture(t)
	f.openReady(t, "ST-12")
	f.publisher.err = errors.New("broker unavailable")

	f.scan(t, "ST-12", "MAT-1|PO-1|3")

	result, err := f.service.Commit(context.Background(), CommitCommand{StationID: "ST-12"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Persisted)
}
