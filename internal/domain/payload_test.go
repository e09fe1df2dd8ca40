package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaterialPick(t *testing.T) {
	pctx := ParseContext{Stage: StageReadyForMaterial, ProductionOrderSet: true, BadgeSet: true}

	tests := []struct {
		name     string
		raw      string
		expected MaterialPickPayload
	}{
		{
			name: "Four pipe-delimited fields",
			raw:  "B006006|PO001|50|26082025",
			expected: MaterialPickPayload{
				MaterialCode: "B006006",
				PONumber:     "PO001",
				Quantity:     50,
				BatchToken:   "26082025",
			},
		},
		{
			name: "Whitespace around delimiters is collapsed",
			raw:  "B006006 | PO001 | 50 | 26082025",
			expected: MaterialPickPayload{
				MaterialCode: "B006006",
				PONumber:     "PO001",
				Quantity:     50,
				BatchToken:   "26082025",
			},
		},
		{
			name: "Three fields without batch token",
			raw:  "B006006|PO001|20",
			expected: MaterialPickPayload{
				MaterialCode: "B006006",
				PONumber:     "PO001",
				Quantity:     20,
			},
		},
		{
			name: "Non-numeric quantity defaults to 1",
			raw:  "B006006|PO001|abc|26082025",
			expected: MaterialPickPayload{
				MaterialCode: "B006006",
				PONumber:     "PO001",
				Quantity:     1,
				BatchToken:   "26082025",
			},
		},
		{
			name: "Zero quantity defaults to 1",
			raw:  "B006006|PO001|0",
			expected: MaterialPickPayload{
				MaterialCode: "B006006",
				PONumber:     "PO001",
				Quantity:     1,
			},
		},
		{
			name: "Bare barcode falls back to unknown PO",
			raw:  "B006006",
			expected: MaterialPickPayload{
				MaterialCode: "B006006",
				PONumber:     UnknownPONumber,
				Quantity:     1,
			},
		},
		{
			name: "Two fields map to material and PO",
			raw:  "B006006|PO001",
			expected: MaterialPickPayload{
				MaterialCode: "B006006",
				PONumber:     "PO001",
				Quantity:     1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Parse(tt.raw, pctx)
			require.NoError(t, err)

			pick, ok := payload.(MaterialPickPayload)
			require.True(t, ok)
			assert.Equal(t, tt.expected, pick)
		})
	}
}

func TestParseEmptyPayload(t *testing.T) {
	for _, stage := range []SessionStage{StageAwaitingProductionOrder, StageAwaitingBadge, StageReadyForMaterial} {
		_, err := Parse("   ", ParseContext{Stage: stage})
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, stage, parseErr.Stage)
	}
}

func TestParseProductionOrder(t *testing.T) {
	payload, err := Parse("KZLSX0326/0089", ParseContext{Stage: StageAwaitingProductionOrder})
	require.NoError(t, err)

	po, ok := payload.(ProductionOrderPayload)
	require.True(t, ok)
	assert.Equal(t, "KZLSX0326/0089", po.OrderID)
	assert.False(t, po.Heuristic)
}

func TestParseBadge(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantBadge string
		wantErr   bool
	}{
		{name: "Exact badge", raw: "ASP2101", wantBadge: "ASP2101"},
		{name: "Extra characters are discarded", raw: "ASP21019999extra", wantBadge: "ASP2101"},
		{name: "Wrong prefix rejected", raw: "XYZ1234", wantErr: true},
		{name: "Too short rejected", raw: "ASP21", wantErr: true},
		{name: "Non-digit suffix rejected", raw: "ASPX101", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Parse(tt.raw, ParseContext{Stage: StageAwaitingBadge, ProductionOrderSet: true})

			if tt.wantErr {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				return
			}

			require.NoError(t, err)
			badge, ok := payload.(BadgePayload)
			require.True(t, ok)
			assert.Equal(t, tt.wantBadge, badge.BadgeID)
			assert.False(t, badge.Heuristic)
		})
	}
}

func TestParseHeuristicBadgeBeforeProductionOrder(t *testing.T) {
	// A badge-shaped token scanned while both setup fields are unset is
	// classified as the badge, flagged as heuristic.
	payload, err := Parse("ASP2101", ParseContext{Stage: StageAwaitingProductionOrder})
	require.NoError(t, err)

	badge, ok := payload.(BadgePayload)
	require.True(t, ok)
	assert.Equal(t, "ASP2101", badge.BadgeID)
	assert.True(t, badge.Heuristic)
}

func TestParseHeuristicDisabledOnceBadgeSet(t *testing.T) {
	// Once the badge is captured, a badge-shaped token awaiting the
	// production order is taken literally as the production order.
	payload, err := Parse("ASP2101", ParseContext{Stage: StageAwaitingProductionOrder, BadgeSet: true})
	require.NoError(t, err)

	po, ok := payload.(ProductionOrderPayload)
	require.True(t, ok)
	assert.Equal(t, "ASP2101", po.OrderID)
}
