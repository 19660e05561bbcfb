package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition_UppercasesSymbol(t *testing.T) {
	p, err := NewPosition("acc-1", "aapl", 10, 150.0, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", p.Symbol)
	assert.NotEmpty(t, p.ID)
}

func TestPosition_Validate(t *testing.T) {
	yesterday := time.Now().Add(-24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name  string
		pos   Position
		field string
	}{
		{"empty symbol", Position{AccountID: "a", Shares: 1, PurchasePrice: 1, PurchaseDate: yesterday}, "symbol"},
		{"long symbol", Position{AccountID: "a", Symbol: "ABCDEFGHIJK", Shares: 1, PurchasePrice: 1, PurchaseDate: yesterday}, "symbol"},
		{"non-alnum symbol", Position{AccountID: "a", Symbol: "BRK.B", Shares: 1, PurchasePrice: 1, PurchaseDate: yesterday}, "symbol"},
		{"zero shares", Position{AccountID: "a", Symbol: "AAPL", Shares: 0, PurchasePrice: 1, PurchaseDate: yesterday}, "shares"},
		{"zero price", Position{AccountID: "a", Symbol: "AAPL", Shares: 1, PurchasePrice: 0, PurchaseDate: yesterday}, "purchase_price"},
		{"future purchase", Position{AccountID: "a", Symbol: "AAPL", Shares: 1, PurchasePrice: 1, PurchaseDate: tomorrow}, "purchase_date"},
		{"no account", Position{Symbol: "AAPL", Shares: 1, PurchasePrice: 1, PurchaseDate: yesterday}, "account_id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var verr *ValidationError
			require.ErrorAs(t, tc.pos.Validate(time.Now()), &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestPosition_GainLoss(t *testing.T) {
	price := 120.0
	p := Position{Symbol: "AAPL", Shares: 10, PurchasePrice: 100, CurrentPrice: &price}

	assert.InDelta(t, 1200.0, p.CurrentValue(), 1e-9)
	assert.InDelta(t, 200.0, p.UnrealizedGainLoss(), 1e-9)
	assert.InDelta(t, 20.0, p.UnrealizedGainLossPercent(), 1e-9)

	unquoted := Position{Symbol: "MSFT", Shares: 5, PurchasePrice: 200}
	assert.InDelta(t, 1000.0, unquoted.CurrentValue(), 1e-9)
	assert.Zero(t, unquoted.UnrealizedGainLoss())
	assert.Zero(t, unquoted.UnrealizedGainLossPercent())
}

func TestSnapshot_ValidateRef(t *testing.T) {
	ref := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	ok := Snapshot{AccountID: "a", Timestamp: ref.Add(-time.Hour), Value: 100, ChangeKind: ChangeManual}
	assert.NoError(t, ok.Validate(ref))

	var verr *ValidationError

	future := ok
	future.Timestamp = ref.Add(time.Hour)
	require.ErrorAs(t, future.Validate(ref), &verr)
	assert.Equal(t, "timestamp", verr.Field)

	negative := ok
	negative.Value = -1
	require.ErrorAs(t, negative.Validate(ref), &verr)
	assert.Equal(t, "value", verr.Field)

	badKind := ok
	badKind.ChangeKind = "REBALANCE"
	require.ErrorAs(t, badKind.Validate(ref), &verr)
	assert.Equal(t, "change_kind", verr.Field)
}
