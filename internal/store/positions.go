package store

import (
	"context"
	"time"

	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/repositories/positions"
)

// AddPosition attaches a stock position to a brokerage account.
func (s *Store) AddPosition(ctx context.Context, accountID, symbol string,
	shares, purchasePrice float64, purchaseDate time.Time) (*models.Position, error) {

	a, err := s.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Kind != models.KindBrokerage {
		return nil, ErrNotBrokerage
	}

	p, err := models.NewPosition(accountID, symbol, shares, purchasePrice, purchaseDate)
	if err != nil {
		return nil, err
	}
	rec := &positions.Record{
		ID:            p.ID,
		AccountID:     p.AccountID,
		Symbol:        p.Symbol,
		Shares:        p.Shares,
		PurchasePrice: p.PurchasePrice,
		PurchaseDate:  p.PurchaseDate.Unix(),
	}
	if err := s.positions.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return p, nil
}

// Positions returns an account's positions ordered by symbol.
func (s *Store) Positions(ctx context.Context, accountID string) ([]models.Position, error) {
	recs, err := s.positions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	result := make([]models.Position, 0, len(recs))
	for i := range recs {
		result = append(result, decodePosition(&recs[i]))
	}
	return result, nil
}

// DeletePosition removes a single position.
func (s *Store) DeletePosition(ctx context.Context, id string) error {
	return s.positions.Delete(ctx, id)
}

// ApplyPrices updates current prices from an externally supplied quote map
// and, when a ledger is installed and anything changed, feeds the account's
// new value into it as a price-update snapshot. Symbols without a quote are
// left untouched. Returns the number of positions updated.
func (s *Store) ApplyPrices(ctx context.Context, accountID string, prices map[string]float64) (int, error) {
	recs, err := s.positions.ListByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	updated := 0
	for i := range recs {
		price, ok := prices[recs[i].Symbol]
		if !ok {
			continue
		}
		if err := s.positions.UpdatePrice(ctx, recs[i].ID, price, now.Unix()); err != nil {
			return updated, err
		}
		updated++
	}

	if updated > 0 && s.ledger != nil {
		value, err := s.CurrentValue(ctx, accountID)
		if err != nil {
			return updated, err
		}
		_, err = s.ledger.AppendIfChanged(ctx, accountID, value, models.ChangePriceUpdate,
			map[string]any{"symbols_updated": updated})
		if err != nil {
			return updated, err
		}
	}
	return updated, nil
}

func decodePosition(rec *positions.Record) models.Position {
	p := models.Position{
		ID:            rec.ID,
		AccountID:     rec.AccountID,
		Symbol:        rec.Symbol,
		Shares:        rec.Shares,
		PurchasePrice: rec.PurchasePrice,
		PurchaseDate:  time.Unix(rec.PurchaseDate, 0).UTC(),
		CurrentPrice:  rec.CurrentPrice,
	}
	if rec.PriceUpdatedAt != nil {
		t := time.Unix(*rec.PriceUpdatedAt, 0).UTC()
		p.PriceUpdated = &t
	}
	return p
}
