package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BadgeLength is the fixed length of an operator badge identifier.
const BadgeLength = 7

var badgeRegex = regexp.MustCompile(`^ASP\d{4}$`)

// UnknownPONumber is assigned when a bare barcode carries no PO information.
const UnknownPONumber = "Unknown"

// ScanSource identifies the input path a raw scan arrived through.
type ScanSource string

const (
	SourceScanner ScanSource = "scanner"
	SourceCamera  ScanSource = "camera"
)

// PayloadKind tags the variant of a parsed scan payload.
type PayloadKind string

const (
	PayloadProductionOrder PayloadKind = "production_order"
	PayloadBadge           PayloadKind = "badge"
	PayloadMaterialPick    PayloadKind = "material_pick"
)

// ParsedPayload is the tagged result of parsing one raw scan string.
type ParsedPayload interface {
	Kind() PayloadKind
}

// ProductionOrderPayload is a scanned production-order identifier.
type ProductionOrderPayload struct {
	OrderID string
	// Heuristic is true when the payload was classified by the
	// out-of-order fallback rather than the stage's fixed rule.
	Heuristic bool
}

func (p ProductionOrderPayload) Kind() PayloadKind { return PayloadProductionOrder }

// BadgePayload is a validated operator badge identifier.
type BadgePayload struct {
	BadgeID   string
	Heuristic bool
}

func (p BadgePayload) Kind() PayloadKind { return PayloadBadge }

// MaterialPickPayload is one material/PO/quantity/batch pick.
type MaterialPickPayload struct {
	MaterialCode string
	PONumber     string
	Quantity     int
	BatchToken   string
}

func (p MaterialPickPayload) Kind() PayloadKind { return PayloadMaterialPick }

// ParseError describes a raw scan payload that could not be classified.
// It is always recovered locally: the operator rescans at the same stage.
type ParseError struct {
	Raw    string
	Stage  SessionStage
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse scan %q at stage %s: %s", e.Raw, e.Stage, e.Reason)
}

// ParseContext carries the session state the parser classifies against.
type ParseContext struct {
	Stage              SessionStage
	ProductionOrderSet bool
	BadgeSet           bool
}

// Parse classifies one raw scan string into a typed payload. It never
// panics; every failure path returns a *ParseError so the caller can
// surface a message and keep the scan input focused for a retry.
func Parse(raw string, pctx ParseContext) (ParsedPayload, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ParseError{Raw: raw, Stage: pctx.Stage, Reason: "empty payload"}
	}

	if pctx.Stage == StageReadyForMaterial {
		return parseMaterialPick(trimmed)
	}

	switch pctx.Stage {
	case StageAwaitingProductionOrder:
		// Out-of-order tolerance: operators sometimes scan the badge
		// before the production order. A token that validates as a badge
		// while both setup fields are unset is taken as the badge.
		if !pctx.ProductionOrderSet && !pctx.BadgeSet {
			if badge, ok := tryBadge(trimmed); ok {
				return BadgePayload{BadgeID: badge, Heuristic: true}, nil
			}
		}
		return ProductionOrderPayload{OrderID: trimmed}, nil

	case StageAwaitingBadge:
		if badge, ok := tryBadge(trimmed); ok {
			return BadgePayload{BadgeID: badge}, nil
		}
		return nil, &ParseError{
			Raw:    raw,
			Stage:  pctx.Stage,
			Reason: fmt.Sprintf("badge must be ASP followed by 4 digits, got %q", firstN(trimmed, BadgeLength)),
		}

	default:
		return nil, &ParseError{Raw: raw, Stage: pctx.Stage, Reason: "unknown session stage"}
	}
}

// tryBadge applies the badge rule: keep the first 7 characters of the
// raw payload and validate them against ASP + 4 digits.
func tryBadge(trimmed string) (string, bool) {
	if len(trimmed) < BadgeLength {
		return "", false
	}
	candidate := trimmed[:BadgeLength]
	if !badgeRegex.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}

// parseMaterialPick maps a pipe-delimited payload positionally to
// material code, PO number, quantity and optional batch token. A payload
// with no pipe at all is still usable: the whole string becomes the
// material code with PO "Unknown" and quantity 1.
func parseMaterialPick(trimmed string) (ParsedPayload, error) {
	normalized := collapsePipeWhitespace(trimmed)

	if !strings.Contains(normalized, "|") {
		return MaterialPickPayload{
			MaterialCode: normalized,
			PONumber:     UnknownPONumber,
			Quantity:     1,
		}, nil
	}

	fields := strings.Split(normalized, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if fields[0] == "" {
		return nil, &ParseError{Raw: trimmed, Stage: StageReadyForMaterial, Reason: "missing material code"}
	}

	pick := MaterialPickPayload{
		MaterialCode: fields[0],
		PONumber:     UnknownPONumber,
		Quantity:     1,
	}

	if len(fields) >= 2 && fields[1] != "" {
		pick.PONumber = fields[1]
	}
	if len(fields) >= 3 {
		pick.Quantity = parseQuantity(fields[2])
	}
	if len(fields) >= 4 {
		pick.BatchToken = fields[3]
	}

	return pick, nil
}

// parseQuantity parses a quantity field, defaulting to 1 when the field
// is not a positive integer.
func parseQuantity(field string) int {
	qty, err := strconv.Atoi(field)
	if err != nil || qty <= 0 {
		return 1
	}
	return qty
}

// collapsePipeWhitespace rewrites "text | text" as "text|text" so that
// inconsistently delimited scanner output splits cleanly.
func collapsePipeWhitespace(s string) string {
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, "|")
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
