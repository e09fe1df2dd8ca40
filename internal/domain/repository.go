package domain

import (
	"context"
)

// OutboundRepository persists consolidated outbound transactions.
type OutboundRepository interface {
	// InsertBatch writes all records in one atomic batched write:
	// either every record is persisted or none is.
	InsertBatch(ctx context.Context, records []*ConsolidatedOutboundRecord) error

	// FindRecent retrieves the most recently created records.
	FindRecent(ctx context.Context, limit int) ([]*ConsolidatedOutboundRecord, error)

	// FindByProductionOrder retrieves records for a production order.
	FindByProductionOrder(ctx context.Context, productionOrder string, limit int) ([]*ConsolidatedOutboundRecord, error)
}

// InventoryRepository reads and adjusts inventory lots for
// reconciliation. Candidates are scoped to the record's factory.
type InventoryRepository interface {
	// FindCandidates returns inventory entries sharing the material
	// code and PO number within a factory, in stored order.
	FindCandidates(ctx context.Context, materialCode, poNumber, factory string) ([]*InventoryItem, error)

	// IncrementExported atomically adds quantity to a lot's exported
	// counter and bumps its last-modified timestamp.
	IncrementExported(ctx context.Context, id string, quantity int) error
}

// EventPublisher publishes domain events emitted by the commit and
// reconciliation phases. Publishing is best effort and never blocks a
// commit result.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	PublishAll(ctx context.Context, events []DomainEvent) error
}
