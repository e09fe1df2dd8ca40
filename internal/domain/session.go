package domain

import (
	"errors"
	"time"
)

// ScanSession errors
var (
	ErrInvalidBadgeFormat    = errors.New("badge must be ASP followed by 4 digits")
	ErrMaterialNotAccepted   = errors.New("session is not ready for material scans")
	ErrProductionOrderEmpty  = errors.New("production order identifier is empty")
	ErrSessionNotReady       = errors.New("session setup is incomplete")
	ErrStationNotFound       = errors.New("scan station not found")
	ErrNothingToCommit       = errors.New("nothing to save: pending buffer is empty")
)

// SessionStage represents the setup progress of a scan session.
type SessionStage string

const (
	StageAwaitingProductionOrder SessionStage = "awaiting_production_order"
	StageAwaitingBadge           SessionStage = "awaiting_badge"
	StageReadyForMaterial        SessionStage = "ready_for_material"
)

// ScanSession tracks setup progress for one physical scanning station.
// Material scans are only accepted once both the production order and
// the operator badge have been captured.
type ScanSession struct {
	StationID       string
	Factory         string
	Stage           SessionStage
	ProductionOrder string
	BadgeID         string
	StartedAt       time.Time
}

// NewScanSession creates a session in its initial stage.
func NewScanSession(stationID, factory string) *ScanSession {
	return &ScanSession{
		StationID: stationID,
		Factory:   factory,
		Stage:     StageAwaitingProductionOrder,
		StartedAt: time.Now().UTC(),
	}
}

// CaptureProductionOrder records the scanned production order and
// advances the stage. When the badge was already captured out of order,
// the session jumps straight to accepting material scans.
func (s *ScanSession) CaptureProductionOrder(orderID string) error {
	if orderID == "" {
		return ErrProductionOrderEmpty
	}

	s.ProductionOrder = orderID
	if s.BadgeID != "" {
		s.Stage = StageReadyForMaterial
	} else {
		s.Stage = StageAwaitingBadge
	}
	return nil
}

// CaptureBadge records a validated badge identifier. A badge arriving
// before the production order is stored without advancing past setup.
// On validation failure the stage is left unchanged so the operator can
// rescan.
func (s *ScanSession) CaptureBadge(badgeID string) error {
	if len(badgeID) != BadgeLength || !badgeRegex.MatchString(badgeID) {
		return ErrInvalidBadgeFormat
	}

	s.BadgeID = badgeID
	if s.ProductionOrder != "" {
		s.Stage = StageReadyForMaterial
	} else {
		s.Stage = StageAwaitingProductionOrder
	}
	return nil
}

// AcceptsMaterial reports whether material scans are accepted.
func (s *ScanSession) AcceptsMaterial() bool {
	return s.Stage == StageReadyForMaterial
}

// ParseContext derives the parser context from the current state.
func (s *ScanSession) ParseContext() ParseContext {
	return ParseContext{
		Stage:              s.Stage,
		ProductionOrderSet: s.ProductionOrder != "",
		BadgeSet:           s.BadgeID != "",
	}
}

// Reset returns the session to its initial stage, discarding the
// captured production order and badge.
func (s *ScanSession) Reset() {
	s.Stage = StageAwaitingProductionOrder
	s.ProductionOrder = ""
	s.BadgeID = ""
	s.StartedAt = time.Now().UTC()
}
