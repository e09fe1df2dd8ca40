package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/outbound-scan-service/pkg/logging"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

// DefaultListLimit caps unbounded outbound listings.
const DefaultListLimit = 100

// BatchExporter renders committed outbound records as a downloadable
// spreadsheet.
type BatchExporter interface {
	Export(records []OutboundRecordDTO) ([]byte, error)
}

// OutboundService serves read access to committed outbound transactions.
type OutboundService struct {
	outboundRepo domain.OutboundRepository
	exporter     BatchExporter
	logger       *logging.Logger
}

// NewOutboundService creates a new OutboundService
func NewOutboundService(outboundRepo domain.OutboundRepository, exporter BatchExporter, logger *logging.Logger) *OutboundService {
	return &OutboundService{
		outboundRepo: outboundRepo,
		exporter:     exporter,
		logger:       logger.WithComponent("outbound_service"),
	}
}

// List returns committed outbound records, optionally filtered by
// production order, newest first.
func (s *OutboundService) List(ctx context.Context, query ListOutboundQuery) ([]OutboundRecordDTO, error) {
	records, err := s.find(ctx, query)
	if err != nil {
		return nil, err
	}
	return ToOutboundRecordDTOs(records), nil
}

// Export renders the same listing as a spreadsheet download.
func (s *OutboundService) Export(ctx context.Context, query ListOutboundQuery) ([]byte, string, error) {
	records, err := s.find(ctx, query)
	if err != nil {
		return nil, "", err
	}

	data, err := s.exporter.Export(ToOutboundRecordDTOs(records))
	if err != nil {
		return nil, "", fmt.Errorf("failed to export outbound records: %w", err)
	}

	filename := "outbound-records.xlsx"
	if query.ProductionOrder != "" {
		filename = fmt.Sprintf("outbound-%s.xlsx", query.ProductionOrder)
	}

	s.logger.Info("Outbound export generated",
		"productionOrder", query.ProductionOrder,
		"records", len(records),
	)
	return data, filename, nil
}

func (s *OutboundService) find(ctx context.Context, query ListOutboundQuery) ([]*domain.ConsolidatedOutboundRecord, error) {
	limit := query.Limit
	if limit <= 0 || limit > 1000 {
		limit = DefaultListLimit
	}

	var (
		records []*domain.ConsolidatedOutboundRecord
		err     error
	)
	if query.ProductionOrder != "" {
		records, err = s.outboundRepo.FindByProductionOrder(ctx, query.ProductionOrder, limit)
	} else {
		records, err = s.outboundRepo.FindRecent(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query outbound records: %w", err)
	}
	return records, nil
}
