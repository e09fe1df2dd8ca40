package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

func consolidatedRecord(id, material, po, batch string, qty int) *domain.ConsolidatedOutboundRecord {
	return &domain.ConsolidatedOutboundRecord{
		OutboundID: id,
		OutboundKey: domain.OutboundKey{
			ExportDate:      "2024-01-15",
			MaterialCode:    material,
			PONumber:        po,
			BatchToken:      batch,
			BadgeID:         "ASP1234",
			ProductionOrder: "MO-2024-0001",
		},
		Quantity:  qty,
		Factory:   "ASM001",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestReconcilePrefersExactBatchMatch(t *testing.T) {
	exact := primitive.NewObjectID()
	fallback := primitive.NewObjectID()
	inventory := &mockInventoryRepo{
		candidatesFn: func(ctx context.Context, materialCode, poNumber, factory string) ([]*domain.InventoryItem, error) {
			return []*domain.InventoryItem{
				{ID: fallback, MaterialCode: materialCode, PONumber: poNumber, BatchToken: "01012024", Quantity: 100},
				{ID: exact, MaterialCode: materialCode, PONumber: poNumber, BatchToken: "15/01/2024", Quantity: 100},
			}, nil
		},
	}
	publisher := &mockPublisher{}
	service := NewReconcileService(inventory, publisher, nil, testLogger())

	summary := service.Reconcile(context.Background(), []*domain.ConsolidatedOutboundRecord{
		consolidatedRecord("PXK-1", "MAT-1", "PO-1", "15012024", 7),
	})

	assert.Equal(t, 1, summary.Reconciled)
	assert.Equal(t, 0, summary.Skipped)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 7, inventory.increments[exact.Hex()])
	assert.Zero(t, inventory.increments[fallback.Hex()])

	require.Len(t, publisher.events, 1)
	reconciled, ok := publisher.events[0].(*domain.InventoryReconciledEvent)
	require.True(t, ok)
	assert.True(t, reconciled.BatchMatched)
}

func TestReconcileFallbackLot(t *testing.T) {
	depleted := primitive.NewObjectID()
	open := primitive.NewObjectID()
	inventory := &mockInventoryRepo{
		candidatesFn: func(ctx context.Context, materialCode, poNumber, factory string) ([]*domain.InventoryItem, error) {
			return []*domain.InventoryItem{
				{ID: depleted, MaterialCode: materialCode, PONumber: poNumber, BatchToken: "01012024", Quantity: 10, Exported: 10},
				{ID: open, MaterialCode: materialCode, PONumber: poNumber, BatchToken: "02012024", Quantity: 10},
			}, nil
		},
	}
	publisher := &mockPublisher{}
	service := NewReconcileService(inventory, publisher, nil, testLogger())

	summary := service.Reconcile(context.Background(), []*domain.ConsolidatedOutboundRecord{
		consolidatedRecord("PXK-1", "MAT-1", "PO-1", "15012024", 4),
	})

	assert.Equal(t, 1, summary.Reconciled)
	assert.Equal(t, 4, inventory.increments[open.Hex()])

	require.Len(t, publisher.events, 1)
	reconciled, ok := publisher.events[0].(*domain.InventoryReconciledEvent)
	require.True(t, ok)
	assert.False(t, reconciled.BatchMatched, "fallback lot must be flagged")
}

func TestReconcileNoCandidatesSkips(t *testing.T) {
	inventory := &mockInventoryRepo{}
	publisher := &mockPublisher{}
	service := NewReconcileService(inventory, publisher, nil, testLogger())

	summary := service.Reconcile(context.Background(), []*domain.ConsolidatedOutboundRecord{
		consolidatedRecord("PXK-1", "MAT-404", "PO-404", "", 4),
	})

	assert.Equal(t, 0, summary.Reconciled)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, summary.Errors, "an unmatched record is a skip, not an error")

	require.Len(t, publisher.events, 1)
	skipped, ok := publisher.events[0].(*domain.InventoryReconcileSkippedEvent)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonNoMatch, skipped.Reason)
}

func TestReconcileRepositoryError(t *testing.T) {
	inventory := &mockInventoryRepo{
		candidatesFn: func(ctx context.Context, materialCode, poNumber, factory string) ([]*domain.InventoryItem, error) {
			return nil, errors.New("connection reset")
		},
	}
	service := NewReconcileService(inventory, &mockPublisher{}, nil, testLogger())

	summary := service.Reconcile(context.Background(), []*domain.ConsolidatedOutboundRecord{
		consolidatedRecord("PXK-1", "MAT-1", "PO-1", "", 4),
	})

	assert.Equal(t, 0, summary.Reconciled)
	assert.Equal(t, 0, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "PXK-1")
}

func TestReconcileAggregatesAcrossKeys(t *testing.T) {
	lots := map[string]primitive.ObjectID{
		"MAT-1": primitive.NewObjectID(),
		"MAT-2": primitive.NewObjectID(),
	}
	inventory := &mockInventoryRepo{
		candidatesFn: func(ctx context.Context, materialCode, poNumber, factory string) ([]*domain.InventoryItem, error) {
			id, ok := lots[materialCode]
			if !ok {
				return nil, nil
			}
			return []*domain.InventoryItem{
				{ID: id, MaterialCode: materialCode, PONumber: poNumber, Quantity: 1000},
			}, nil
		},
	}
	service := NewReconcileService(inventory, &mockPublisher{}, nil, testLogger())

	records := []*domain.ConsolidatedOutboundRecord{
		consolidatedRecord("PXK-1", "MAT-1", "PO-1", "", 3),
		consolidatedRecord("PXK-2", "MAT-2", "PO-1", "", 5),
		consolidatedRecord("PXK-3", "MAT-1", "PO-1", "", 2),
		consolidatedRecord("PXK-4", "MAT-404", "PO-1", "", 1),
	}

	summary := service.Reconcile(context.Background(), records)

	assert.Equal(t, 3, summary.Reconciled)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 5, inventory.increments[lots["MAT-1"].Hex()])
	assert.Equal(t, 5, inventory.increments[lots["MAT-2"].Hex()])
}

func TestReconcileEmptyBatch(t *testing.T) {
	service := NewReconcileService(&mockInventoryRepo{}, &mockPublisher{}, nil, testLogger())
	summary := service.Reconcile(context.Background(), nil)
	assert.Zero(t, summary.Reconciled)
	assert.Zero(t, summary.Skipped)
	assert.Empty(t, summary.Errors)
}
