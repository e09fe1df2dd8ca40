package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"
	"github.com/wms-platform/outbound-scan-service/pkg/metrics"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

// ReconcileSummary aggregates per-record reconciliation outcomes for
// one committed batch.
type ReconcileSummary struct {
	Reconciled int
	Skipped    int
	Errors     []string
}

// ReconcileService matches committed outbound records against inventory
// lots and increments their exported counters. Records sharing one
// inventory match key are applied serially so concurrent commits for the
// same lot never race; distinct keys are processed concurrently.
type ReconcileService struct {
	inventoryRepo domain.InventoryRepository
	publisher     domain.EventPublisher
	metrics       *metrics.Metrics
	logger        *logging.Logger
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	inventoryRepo domain.InventoryRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ReconcileService {
	return &ReconcileService{
		inventoryRepo: inventoryRepo,
		publisher:     publisher,
		metrics:       m,
		logger:        logger.WithComponent("reconcile_service"),
	}
}

// Reconcile processes every record of a committed batch. It never
// returns an error: per-record failures land in the summary so a commit
// always reports the full picture.
func (s *ReconcileService) Reconcile(ctx context.Context, records []*domain.ConsolidatedOutboundRecord) ReconcileSummary {
	if len(records) == 0 {
		return ReconcileSummary{}
	}

	groups := make(map[domain.InventoryMatchKey][]*domain.ConsolidatedOutboundRecord)
	order := make([]domain.InventoryMatchKey, 0, len(records))
	for _, rec := range records {
		key := rec.MatchKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	results := make([]ReconcileSummary, len(order))
	var wg sync.WaitGroup
	for i, key := range order {
		wg.Add(1)
		go func(i int, key domain.InventoryMatchKey) {
			defer wg.Done()
			results[i] = s.reconcileGroup(ctx, key, groups[key])
		}(i, key)
	}
	wg.Wait()

	summary := ReconcileSummary{}
	for _, r := range results {
		summary.Reconciled += r.Reconciled
		summary.Skipped += r.Skipped
		summary.Errors = append(summary.Errors, r.Errors...)
	}
	return summary
}

// reconcileGroup applies all records for one match key in order.
// Candidates are re-read per record: an earlier increment may deplete a
// lot and change the fallback choice for the next record.
func (s *ReconcileService) reconcileGroup(ctx context.Context, key domain.InventoryMatchKey, records []*domain.ConsolidatedOutboundRecord) ReconcileSummary {
	summary := ReconcileSummary{}

	for _, rec := range records {
		result, err := s.reconcileRecord(ctx, key, rec)
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("%s: %v", rec.OutboundID, err))
			s.recordOutcome("error")
			continue
		}

		if result.Updated {
			summary.Reconciled++
			s.recordOutcome("reconciled")
			continue
		}

		summary.Skipped++
		s.recordOutcome("skipped")
	}

	return summary
}

func (s *ReconcileService) reconcileRecord(ctx context.Context, key domain.InventoryMatchKey, rec *domain.ConsolidatedOutboundRecord) (domain.ReconcileResult, error) {
	candidates, err := s.inventoryRepo.FindCandidates(ctx, rec.MaterialCode, rec.PONumber, rec.Factory)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("failed to find inventory candidates: %w", err)
	}

	picked, batchMatched := domain.SelectCandidate(candidates, key.NormalizedBatchDate)
	if picked == nil {
		s.logger.Info("No inventory match for outbound record",
			"outboundId", rec.OutboundID,
			"materialCode", rec.MaterialCode,
			"poNumber", rec.PONumber,
		)
		s.publish(ctx, &domain.InventoryReconcileSkippedEvent{
			OutboundID:   rec.OutboundID,
			MaterialCode: rec.MaterialCode,
			PONumber:     rec.PONumber,
			Reason:       domain.ReasonNoMatch,
			OccurredAt_:  time.Now().UTC(),
		})
		return domain.ReconcileResult{Updated: false, Reason: domain.ReasonNoMatch}, nil
	}

	if err := s.inventoryRepo.IncrementExported(ctx, picked.ID.Hex(), rec.Quantity); err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("failed to increment exported quantity: %w", err)
	}

	if !batchMatched {
		s.logger.Warn("Reconciled against fallback inventory lot",
			"outboundId", rec.OutboundID,
			"inventoryId", picked.ID.Hex(),
			"wantBatch", key.NormalizedBatchDate,
			"gotBatch", picked.NormalizedBatch(),
		)
	}

	s.publish(ctx, &domain.InventoryReconciledEvent{
		OutboundID:   rec.OutboundID,
		InventoryID:  picked.ID.Hex(),
		MaterialCode: rec.MaterialCode,
		PONumber:     rec.PONumber,
		BatchToken:   rec.BatchToken,
		Quantity:     rec.Quantity,
		BatchMatched: batchMatched,
		OccurredAt_:  time.Now().UTC(),
	})

	return domain.ReconcileResult{
		Updated:      true,
		InventoryID:  picked.ID.Hex(),
		BatchMatched: batchMatched,
	}, nil
}

func (s *ReconcileService) publish(ctx context.Context, event domain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish reconcile event", "eventType", event.EventType())
	}
}

func (s *ReconcileService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordReconcileOutcome(outcome)
	}
}
