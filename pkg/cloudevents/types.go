package cloudevents

import (
	"time"
)

// EventType constants for outbound scan domain events
const (
	// Outbound events
	OutboundCommitted = "wms.outbound.batch-committed"

	// Inventory events
	InventoryReconciled       = "wms.outbound.inventory-reconciled"
	InventoryReconcileSkipped = "wms.outbound.inventory-skipped"

	// Station events
	StationOpened = "wms.outbound.station-opened"
	StationReset  = "wms.outbound.station-reset"
)

// Source constants for event sources
const (
	SourceOutboundScan = "/wms/outbound-scan-service"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	StationID     string `json:"wmsstationid,omitempty"`
	Factory       string `json:"wmsfactory,omitempty"`
}

// OutboundCommittedData represents the data payload for OutboundCommitted
type OutboundCommittedData struct {
	StationID     string    `json:"stationId"`
	Factory       string    `json:"factory"`
	Persisted     int       `json:"persisted"`
	TotalQuantity int       `json:"totalQuantity"`
	CommittedAt   time.Time `json:"committedAt"`
}

// InventoryReconciledData represents the data payload for InventoryReconciled
type InventoryReconciledData struct {
	OutboundID   string `json:"outboundId"`
	InventoryID  string `json:"inventoryId"`
	MaterialCode string `json:"materialCode"`
	PONumber     string `json:"poNumber"`
	Quantity     int    `json:"quantity"`
	BatchMatched bool   `json:"batchMatched"`
}

// InventoryReconcileSkippedData represents the data payload for InventoryReconcileSkipped
type InventoryReconcileSkippedData struct {
	OutboundID   string `json:"outboundId"`
	MaterialCode string `json:"materialCode"`
	PONumber     string `json:"poNumber"`
	Reason       string `json:"reason"`
}

// StationEventData represents the data payload for station lifecycle events
type StationEventData struct {
	StationID string `json:"stationId"`
	Factory   string `json:"factory"`
	Operator  string `json:"operator,omitempty"`
}
