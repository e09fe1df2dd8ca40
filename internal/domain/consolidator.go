package domain

// Consolidate collapses a pending buffer into the minimal set of
// distinct outbound transactions. Records are visited in capture order;
// two records merge only when all six key components match exactly, and
// quantity is the only field that changes on merge. Output order is the
// first-seen order of distinct keys, so re-running on the same buffer is
// deterministic.
func Consolidate(records []ScanRecord) []*ConsolidatedOutboundRecord {
	if len(records) == 0 {
		return nil
	}

	byKey := make(map[OutboundKey]*ConsolidatedOutboundRecord, len(records))
	ordered := make([]*ConsolidatedOutboundRecord, 0, len(records))

	for _, rec := range records {
		key := rec.Key()

		if existing, ok := byKey[key]; ok {
			existing.Quantity += rec.Quantity
			if rec.CapturedAt.Before(existing.CreatedAt) {
				existing.CreatedAt = rec.CapturedAt
			}
			if rec.CapturedAt.After(existing.UpdatedAt) {
				existing.UpdatedAt = rec.CapturedAt
			}
			continue
		}

		merged := &ConsolidatedOutboundRecord{
			OutboundID:  generateOutboundID(),
			OutboundKey: key,
			Quantity:    rec.Quantity,
			Location:    rec.Location,
			Factory:     rec.Factory,
			Source:      rec.Source,
			CreatedAt:   rec.CapturedAt,
			UpdatedAt:   rec.CapturedAt,
		}
		byKey[key] = merged
		ordered = append(ordered, merged)
	}

	return ordered
}

// TotalQuantity sums the quantities of a consolidated batch.
func TotalQuantity(records []*ConsolidatedOutboundRecord) int {
	total := 0
	for _, rec := range records {
		total += rec.Quantity
	}
	return total
}
