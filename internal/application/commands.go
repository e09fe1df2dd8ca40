package application

// OpenStationCommand opens (or reopens) a scan session for a station
type OpenStationCommand struct {
	StationID string
	Factory   string
	Operator  string
}

// IngestScanCommand submits one raw scan payload for a station
type IngestScanCommand struct {
	StationID string
	Raw       string
	Source    string
}

// CommitCommand flushes a station's pending buffer to storage
type CommitCommand struct {
	StationID string
}

// ResetCommand discards a station's session setup and pending buffer
type ResetCommand struct {
	StationID string
}

// GetStationQuery fetches the live state of a station
type GetStationQuery struct {
	StationID string
}

// ListOutboundQuery fetches recently committed outbound records
type ListOutboundQuery struct {
	ProductionOrder string
	Limit           int
}
