package domain

import "time"

// DomainEvent represents a domain event interface
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// OutboundCommittedEvent is emitted after a pending buffer is persisted
// as outbound transactions.
type OutboundCommittedEvent struct {
	StationID       string    `json:"stationId"`
	ProductionOrder string    `json:"productionOrder"`
	BadgeID         string    `json:"badgeId"`
	RecordCount     int       `json:"recordCount"`
	TotalQuantity   int       `json:"totalQuantity"`
	CommittedAt     time.Time `json:"committedAt"`
}

func (e *OutboundCommittedEvent) EventType() string     { return "outbound.batch.committed" }
func (e *OutboundCommittedEvent) OccurredAt() time.Time { return e.CommittedAt }

// InventoryReconciledEvent is emitted when a consolidated record
// increments an inventory lot's exported counter.
type InventoryReconciledEvent struct {
	OutboundID   string    `json:"outboundId"`
	InventoryID  string    `json:"inventoryId"`
	MaterialCode string    `json:"materialCode"`
	PONumber     string    `json:"poNumber"`
	BatchToken   string    `json:"batchToken,omitempty"`
	Quantity     int       `json:"quantity"`
	BatchMatched bool      `json:"batchMatched"`
	OccurredAt_  time.Time `json:"occurredAt"`
}

func (e *InventoryReconciledEvent) EventType() string     { return "outbound.inventory.reconciled" }
func (e *InventoryReconciledEvent) OccurredAt() time.Time { return e.OccurredAt_ }

// InventoryReconcileSkippedEvent is emitted when no inventory candidate
// exists for a record. A diagnostic, not a failure.
type InventoryReconcileSkippedEvent struct {
	OutboundID   string    `json:"outboundId"`
	MaterialCode string    `json:"materialCode"`
	PONumber     string    `json:"poNumber"`
	Reason       string    `json:"reason"`
	OccurredAt_  time.Time `json:"occurredAt"`
}

func (e *InventoryReconcileSkippedEvent) EventType() string     { return "outbound.inventory.skipped" }
func (e *InventoryReconcileSkippedEvent) OccurredAt() time.Time { return e.OccurredAt_ }

// StationOpenedEvent is emitted when a scan session starts at a station.
type StationOpenedEvent struct {
	StationID   string    `json:"stationId"`
	Factory     string    `json:"factory"`
	Operator    string    `json:"operator,omitempty"`
	Restored    int       `json:"restored"`
	OccurredAt_ time.Time `json:"occurredAt"`
}

func (e *StationOpenedEvent) EventType() string     { return "outbound.station.opened" }
func (e *StationOpenedEvent) OccurredAt() time.Time { return e.OccurredAt_ }

// StationResetEvent is emitted when an operator discards a station's
// session setup and pending buffer.
type StationResetEvent struct {
	StationID   string    `json:"stationId"`
	Factory     string    `json:"factory"`
	Discarded   int       `json:"discarded"`
	OccurredAt_ time.Time `json:"occurredAt"`
}

func (e *StationResetEvent) EventType() string     { return "outbound.station.reset" }
func (e *StationResetEvent) OccurredAt() time.Time { return e.OccurredAt_ }
