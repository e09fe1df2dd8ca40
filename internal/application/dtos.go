package application

import (
	"time"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

// StationStateDTO represents the live state of a scan station
type StationStateDTO struct {
	StationID       string          `json:"stationId"`
	Factory         string          `json:"factory"`
	Stage           string          `json:"stage"`
	ProductionOrder string          `json:"productionOrder,omitempty"`
	BadgeID         string          `json:"badgeId,omitempty"`
	StartedAt       time.Time       `json:"startedAt"`
	PendingCount    int             `json:"pendingCount"`
	PendingRecords  []ScanRecordDTO `json:"pendingRecords"`
	LastScan        *ScanOutcomeDTO `json:"lastScan,omitempty"`
}

// ScanRecordDTO represents one buffered material pick
type ScanRecordDTO struct {
	MaterialCode    string    `json:"materialCode"`
	PONumber        string    `json:"poNumber"`
	Quantity        int       `json:"quantity"`
	BatchToken      string    `json:"batchToken,omitempty"`
	Location        string    `json:"location"`
	ProductionOrder string    `json:"productionOrder"`
	BadgeID         string    `json:"badgeId"`
	CapturedAt      time.Time `json:"capturedAt"`
	Source          string    `json:"source"`
}

// ScanOutcomeDTO describes how the most recent scan was handled
type ScanOutcomeDTO struct {
	Raw      string    `json:"raw"`
	Kind     string    `json:"kind,omitempty"`
	Accepted bool      `json:"accepted"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// CommitResultDTO aggregates the outcome of a commit across the
// persistence and reconciliation phases
type CommitResultDTO struct {
	StationID     string    `json:"stationId"`
	Persisted     int       `json:"persisted"`
	TotalQuantity int       `json:"totalQuantity"`
	Reconciled    int       `json:"reconciled"`
	Skipped       int       `json:"skipped"`
	Errors        []string  `json:"errors"`
	CommittedAt   time.Time `json:"committedAt"`
}

// OutboundRecordDTO represents one committed outbound transaction
type OutboundRecordDTO struct {
	OutboundID      string    `json:"outboundId"`
	ExportDate      string    `json:"exportDate"`
	MaterialCode    string    `json:"materialCode"`
	PONumber        string    `json:"poNumber"`
	BatchToken      string    `json:"batchToken,omitempty"`
	BadgeID         string    `json:"badgeId"`
	ProductionOrder string    `json:"productionOrder"`
	Quantity        int       `json:"quantity"`
	Location        string    `json:"location"`
	Factory         string    `json:"factory"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ToScanRecordDTO maps a domain scan record to its DTO
func ToScanRecordDTO(r domain.ScanRecord) ScanRecordDTO {
	return ScanRecordDTO{
		MaterialCode:    r.MaterialCode,
		PONumber:        r.PONumber,
		Quantity:        r.Quantity,
		BatchToken:      r.BatchToken,
		Location:        r.Location,
		ProductionOrder: r.ProductionOrder,
		BadgeID:         r.BadgeID,
		CapturedAt:      r.CapturedAt,
		Source:          string(r.Source),
	}
}

// ToOutboundRecordDTO maps a consolidated record to its DTO
func ToOutboundRecordDTO(r *domain.ConsolidatedOutboundRecord) OutboundRecordDTO {
	return OutboundRecordDTO{
		OutboundID:      r.OutboundID,
		ExportDate:      r.ExportDate,
		MaterialCode:    r.MaterialCode,
		PONumber:        r.PONumber,
		BatchToken:      r.BatchToken,
		BadgeID:         r.BadgeID,
		ProductionOrder: r.ProductionOrder,
		Quantity:        r.Quantity,
		Location:        r.Location,
		Factory:         r.Factory,
		Source:          string(r.Source),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ToOutboundRecordDTOs maps a slice of consolidated records
func ToOutboundRecordDTOs(records []*domain.ConsolidatedOutboundRecord) []OutboundRecordDTO {
	out := make([]OutboundRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ToOutboundRecordDTO(r))
	}
	return out
}
