package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UnknownLocation is the sentinel location for picks scanned without
// an explicit warehouse location.
const UnknownLocation = "unknown"

// ScanRecord is one material pick captured during a scan session.
// Immutable once created; only the consolidator consumes it.
type ScanRecord struct {
	MaterialCode    string     `bson:"materialCode" json:"materialCode"`
	PONumber        string     `bson:"poNumber" json:"poNumber"`
	Quantity        int        `bson:"quantity" json:"quantity"`
	BatchToken      string     `bson:"batchToken,omitempty" json:"batchToken,omitempty"`
	Location        string     `bson:"location" json:"location"`
	ProductionOrder string     `bson:"productionOrder" json:"productionOrder"`
	BadgeID         string     `bson:"badgeId" json:"badgeId"`
	Factory         string     `bson:"factory" json:"factory"`
	CapturedAt      time.Time  `bson:"capturedAt" json:"capturedAt"`
	Source          ScanSource `bson:"source" json:"source"`
}

// NewScanRecord builds a ScanRecord from a parsed material pick and the
// owning session's setup fields.
func NewScanRecord(pick MaterialPickPayload, session *ScanSession, source ScanSource, capturedAt time.Time) ScanRecord {
	return ScanRecord{
		MaterialCode:    pick.MaterialCode,
		PONumber:        pick.PONumber,
		Quantity:        pick.Quantity,
		BatchToken:      pick.BatchToken,
		Location:        UnknownLocation,
		ProductionOrder: session.ProductionOrder,
		BadgeID:         session.BadgeID,
		Factory:         session.Factory,
		CapturedAt:      capturedAt,
		Source:          source,
	}
}

// OutboundKey is the composite equality key two scan records must share
// to merge into one outbound transaction. All six components must match
// exactly.
type OutboundKey struct {
	ExportDate      string `bson:"exportDate" json:"exportDate"` // date-only, YYYY-MM-DD
	MaterialCode    string `bson:"materialCode" json:"materialCode"`
	PONumber        string `bson:"poNumber" json:"poNumber"`
	BatchToken      string `bson:"batchToken" json:"batchToken"`
	BadgeID         string `bson:"badgeId" json:"badgeId"`
	ProductionOrder string `bson:"productionOrder" json:"productionOrder"`
}

// Key computes the consolidation key for a scan record.
func (r ScanRecord) Key() OutboundKey {
	return OutboundKey{
		ExportDate:      r.CapturedAt.UTC().Format("2006-01-02"),
		MaterialCode:    r.MaterialCode,
		PONumber:        r.PONumber,
		BatchToken:      r.BatchToken,
		BadgeID:         r.BadgeID,
		ProductionOrder: r.ProductionOrder,
	}
}

// ConsolidatedOutboundRecord is a persisted outbound transaction: the
// merge of all scan records sharing one OutboundKey, with quantities
// summed. Location and notes of the first contributing record are kept.
type ConsolidatedOutboundRecord struct {
	OutboundID string `bson:"outboundId" json:"outboundId"`
	OutboundKey `bson:",inline" json:",inline"`

	Quantity int        `bson:"quantity" json:"quantity"`
	Location string     `bson:"location" json:"location"`
	Notes    string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Factory  string     `bson:"factory" json:"factory"`
	Source   ScanSource `bson:"source" json:"source"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MatchKey is the reconciliation key used to locate the inventory entry
// an outbound record decrements against.
func (r *ConsolidatedOutboundRecord) MatchKey() InventoryMatchKey {
	return InventoryMatchKey{
		MaterialCode:        r.MaterialCode,
		PONumber:            r.PONumber,
		NormalizedBatchDate: NormalizeBatchToken(r.BatchToken),
	}
}

// InventoryMatchKey identifies the inventory lot a consolidated record
// reconciles against.
type InventoryMatchKey struct {
	MaterialCode        string
	PONumber            string
	NormalizedBatchDate string
}

// String renders the key for per-key worker dispatch and diagnostics.
func (k InventoryMatchKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.MaterialCode, k.PONumber, k.NormalizedBatchDate)
}

func generateOutboundID() string {
	return "PXK-" + uuid.New().String()
}
