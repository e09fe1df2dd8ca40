package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for outbound scan domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new WMSCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateOutboundCommittedEvent creates an OutboundCommitted event
func (f *EventFactory) CreateOutboundCommittedEvent(
	ctx context.Context,
	stationID string,
	factory string,
	persisted int,
	totalQuantity int,
	committedAt time.Time,
) *WMSCloudEvent {
	data := OutboundCommittedData{
		StationID:     stationID,
		Factory:       factory,
		Persisted:     persisted,
		TotalQuantity: totalQuantity,
		CommittedAt:   committedAt,
	}
	event := f.CreateEvent(ctx, OutboundCommitted, "station/"+stationID, data)
	event.StationID = stationID
	event.Factory = factory
	return event
}

// CreateInventoryReconciledEvent creates an InventoryReconciled event
func (f *EventFactory) CreateInventoryReconciledEvent(
	ctx context.Context,
	outboundID string,
	inventoryID string,
	materialCode string,
	poNumber string,
	quantity int,
	batchMatched bool,
) *WMSCloudEvent {
	data := InventoryReconciledData{
		OutboundID:   outboundID,
		InventoryID:  inventoryID,
		MaterialCode: materialCode,
		PONumber:     poNumber,
		Quantity:     quantity,
		BatchMatched: batchMatched,
	}
	return f.CreateEvent(ctx, InventoryReconciled, "outbound/"+outboundID, data)
}

// CreateInventoryReconcileSkippedEvent creates an InventoryReconcileSkipped event
func (f *EventFactory) CreateInventoryReconcileSkippedEvent(
	ctx context.Context,
	outboundID string,
	materialCode string,
	poNumber string,
	reason string,
) *WMSCloudEvent {
	data := InventoryReconcileSkippedData{
		OutboundID:   outboundID,
		MaterialCode: materialCode,
		PONumber:     poNumber,
		Reason:       reason,
	}
	return f.CreateEvent(ctx, InventoryReconcileSkipped, "outbound/"+outboundID, data)
}

// CreateStationEvent creates a station lifecycle event
func (f *EventFactory) CreateStationEvent(
	ctx context.Context,
	eventType string,
	stationID string,
	factory string,
	operator string,
) *WMSCloudEvent {
	data := StationEventData{
		StationID: stationID,
		Factory:   factory,
		Operator:  operator,
	}
	event := f.CreateEvent(ctx, eventType, "station/"+stationID, data)
	event.StationID = stationID
	event.Factory = factory
	return event
}
