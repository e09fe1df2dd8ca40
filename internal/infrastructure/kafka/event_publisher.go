package kafka

import (
	"context"

	"github.com/wms-platform/outbound-scan-service/pkg/cloudevents"
	sharedkafka "github.com/wms-platform/outbound-scan-service/pkg/kafka"
	"github.com/wms-platform/outbound-scan-service/pkg/logging"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

// EventPublisher maps domain events onto CloudEvents and routes them to
// their Kafka topics through the circuit-breaker producer.
type EventPublisher struct {
	producer     *sharedkafka.CircuitBreakerProducer
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

// NewEventPublisher creates a new EventPublisher
func NewEventPublisher(producer *sharedkafka.CircuitBreakerProducer, eventFactory *cloudevents.EventFactory, logger *logging.Logger) *EventPublisher {
	return &EventPublisher{
		producer:     producer,
		eventFactory: eventFactory,
		logger:       logger.WithComponent("event_publisher"),
	}
}

// Publish converts one domain event and publishes it.
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	topic, cloudEvent := p.convert(ctx, event)
	if cloudEvent == nil {
		p.logger.Warn("Dropping unmapped domain event", "eventType", event.EventType())
		return nil
	}
	return p.producer.PublishEvent(ctx, topic, cloudEvent)
}

// PublishAll publishes a slice of domain events, stopping at the first
// failure.
func (p *EventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (p *EventPublisher) convert(ctx context.Context, event domain.DomainEvent) (string, *cloudevents.WMSCloudEvent) {
	switch e := event.(type) {
	case *domain.OutboundCommittedEvent:
		ce := p.eventFactory.CreateEvent(ctx, cloudevents.OutboundCommitted, "station/"+e.StationID, e)
		ce.StationID = e.StationID
		return sharedkafka.Topics.OutboundEvents, ce

	case *domain.InventoryReconciledEvent:
		return sharedkafka.Topics.InventoryEvents,
			p.eventFactory.CreateInventoryReconciledEvent(ctx, e.OutboundID, e.InventoryID, e.MaterialCode, e.PONumber, e.Quantity, e.BatchMatched)

	case *domain.InventoryReconcileSkippedEvent:
		return sharedkafka.Topics.InventoryEvents,
			p.eventFactory.CreateInventoryReconcileSkippedEvent(ctx, e.OutboundID, e.MaterialCode, e.PONumber, e.Reason)

	case *domain.StationOpenedEvent:
		return sharedkafka.Topics.StationEvents,
			p.eventFactory.CreateStationEvent(ctx, cloudevents.StationOpened, e.StationID, e.Factory, e.Operator)

	case *domain.StationResetEvent:
		return sharedkafka.Topics.StationEvents,
			p.eventFactory.CreateStationEvent(ctx, cloudevents.StationReset, e.StationID, e.Factory, "")

	default:
		return "", nil
	}
}
