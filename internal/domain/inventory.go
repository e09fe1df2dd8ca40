package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryItem is one inventory lot as stored in the inventory
// collection. Reconciliation only ever increments Exported; it never
// creates or deletes inventory rows.
type InventoryItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MaterialCode string             `bson:"materialCode" json:"materialCode"`
	PONumber     string             `bson:"poNumber" json:"poNumber"`
	Factory      string             `bson:"factory" json:"factory"`
	BatchToken   string             `bson:"batchToken,omitempty" json:"batchToken,omitempty"`
	ImportDate   *time.Time         `bson:"importDate,omitempty" json:"importDate,omitempty"`
	Location     string             `bson:"location,omitempty" json:"location,omitempty"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Exported     int                `bson:"exported" json:"exported"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NormalizedBatch reduces the stored batch representation (token or
// date value) to the canonical DDMMYYYY form for matching.
func (i *InventoryItem) NormalizedBatch() string {
	if i.BatchToken != "" {
		return NormalizeBatchToken(i.BatchToken)
	}
	if i.ImportDate != nil {
		return NormalizeBatchDate(*i.ImportDate)
	}
	return ""
}

// Remaining returns the unexported quantity of the lot.
func (i *InventoryItem) Remaining() int {
	return i.Quantity - i.Exported
}

// ReasonNoMatch is the diagnostic reason recorded when no inventory
// candidate exists for a record's material and PO. A skip, not an error.
const ReasonNoMatch = "no matching inventory record"

// ReconcileResult is the outcome of matching one consolidated outbound
// record against inventory.
type ReconcileResult struct {
	Updated     bool   `json:"updated"`
	Reason      string `json:"reason,omitempty"`
	InventoryID string `json:"inventoryId,omitempty"`
	// BatchMatched is false when the lenient fallback picked a
	// candidate whose batch differs from the record's.
	BatchMatched bool `json:"batchMatched"`
}

// SelectCandidate applies the reconciliation matching rules to the
// candidates found for a record's (material, PO, factory):
//
//  1. exact normalized-batch match wins;
//  2. else the first candidate with remaining unexported quantity;
//  3. else the first candidate at all;
//  4. no candidates -> nil (the record is skipped).
//
// The fallback can attribute an export to the wrong batch when several
// lots share a material+PO and none matches exactly. That behavior is
// load-bearing for downstream reports and is kept as is.
func SelectCandidate(candidates []*InventoryItem, normalizedBatch string) (*InventoryItem, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	for _, c := range candidates {
		if c.NormalizedBatch() == normalizedBatch {
			return c, true
		}
	}

	for _, c := range candidates {
		if c.Remaining() > 0 {
			return c, false
		}
	}

	return candidates[0], false
}
