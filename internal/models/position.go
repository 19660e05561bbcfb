package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxSymbolLen = 10

// Position is a stock holding owned by exactly one brokerage account and
// cascade-deleted with it. Symbol is a plaintext index column; prices are
// externally supplied quotes, never fetched by the core.
type Position struct {
	ID            string
	AccountID     string
	Symbol        string
	Shares        float64
	PurchasePrice float64
	PurchaseDate  time.Time
	CurrentPrice  *float64
	PriceUpdated  *time.Time
}

// NewPosition validates and builds a position. The symbol is uppercased.
func NewPosition(accountID, symbol string, shares, purchasePrice float64, purchaseDate time.Time) (*Position, error) {
	p := &Position{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Shares:        shares,
		PurchasePrice: purchasePrice,
		PurchaseDate:  purchaseDate,
	}
	if err := p.Validate(time.Now()); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks all position invariants against the given wall clock.
func (p *Position) Validate(now time.Time) error {
	if p.AccountID == "" {
		return invalid("account_id", p.AccountID, "cannot be empty")
	}
	if err := validateSymbol(p.Symbol); err != nil {
		return err
	}
	if p.Shares <= 0 {
		return invalid("shares", p.Shares, "must be positive")
	}
	if p.PurchasePrice <= 0 {
		return invalid("purchase_price", p.PurchasePrice, "must be positive")
	}
	if p.PurchaseDate.IsZero() || p.PurchaseDate.After(now) {
		return invalid("purchase_date", p.PurchaseDate, "cannot be in the future")
	}
	if p.CurrentPrice != nil && *p.CurrentPrice <= 0 {
		return invalid("current_price", *p.CurrentPrice, "must be positive")
	}
	return nil
}

func validateSymbol(symbol string) error {
	if symbol == "" {
		return invalid("symbol", symbol, "cannot be empty")
	}
	if len(symbol) > maxSymbolLen {
		return invalid("symbol", symbol, "cannot exceed 10 characters")
	}
	for _, r := range symbol {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return invalid("symbol", symbol, "must be alphanumeric")
		}
	}
	return nil
}

// CurrentValue marks the position at the latest quote, falling back to cost
// basis when no quote has been supplied yet.
func (p *Position) CurrentValue() float64 {
	price := p.PurchasePrice
	if p.CurrentPrice != nil {
		price = *p.CurrentPrice
	}
	return p.Shares * price
}

// UnrealizedGainLoss is zero until a quote is available.
func (p *Position) UnrealizedGainLoss() float64 {
	if p.CurrentPrice == nil {
		return 0
	}
	return (*p.CurrentPrice - p.PurchasePrice) * p.Shares
}

// UnrealizedGainLossPercent is zero until a quote is available.
func (p *Position) UnrealizedGainLossPercent() float64 {
	if p.CurrentPrice == nil {
		return 0
	}
	return (*p.CurrentPrice - p.PurchasePrice) / p.PurchasePrice * 100
}
