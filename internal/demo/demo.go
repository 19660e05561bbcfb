// Package demo seeds a vault with demo-flagged sample data: one account of
// every kind, a few stock positions and a year of snapshot history. The
// seeder is deterministic so repeated runs on fresh vaults produce the same
// shape; store.DeleteDemo removes everything it created.
package demo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/skuznetsov/finvault/internal/ledger"
	"github.com/skuznetsov/finvault/internal/models"
	"github.com/skuznetsov/finvault/internal/store"
)

const randSeed = 42

// account value growth per week, fractional.
const weeklyDrift = 0.002

type seedAccount struct {
	name        string
	institution string
	kind        models.Kind
	payload     map[string]any
	startValue  float64
}

// Generate creates the demo dataset and returns the number of accounts
// seeded.
func Generate(ctx context.Context, st *store.Store, led *ledger.Ledger) (int, error) {
	now := time.Now().UTC()
	rng := rand.New(rand.NewSource(randSeed))

	seeds := []seedAccount{
		{
			name: "Demo Savings", institution: "First Demo Bank", kind: models.KindSavings,
			payload: map[string]any{
				"current_balance": 12500.0,
				"interest_rate":   2.1,
			},
			startValue: 11000,
		},
		{
			name: "Demo Term Deposit", institution: "First Demo Bank", kind: models.KindTermDeposit,
			payload: map[string]any{
				"principal_amount": 20000.0,
				"interest_rate":    4.5,
				"current_value":    20600.0,
				"maturity_date":    now.AddDate(1, 0, 0).Format("2006-01-02"),
			},
			startValue: 20000,
		},
		{
			name: "Demo Retirement", institution: "Pension Partners", kind: models.KindRetirement,
			payload: map[string]any{
				"current_balance":       48000.0,
				"employer_match":        3.0,
				"employer_contribution": 2400.0,
				"contribution_limit":    23000.0,
			},
			startValue: 40000,
		},
		{
			name: "Demo Brokerage", institution: "Demo Securities", kind: models.KindBrokerage,
			payload: map[string]any{
				"broker_name":  "Demo Securities",
				"cash_balance": 3500.0,
			},
			startValue: 15000,
		},
		{
			name: "Demo Inflation Bond", institution: "Treasury Direct", kind: models.KindInflationBond,
			payload: map[string]any{
				"purchase_amount": 10000.0,
				"current_value":   10800.0,
				"fixed_rate":      1.3,
				"inflation_rate":  3.2,
				"purchase_date":   now.AddDate(-2, 0, 0).Format("2006-01-02"),
				"maturity_date":   now.AddDate(3, 0, 0).Format("2006-01-02"),
			},
			startValue: 10000,
		},
		{
			name: "Demo Health Savings", institution: "HealthFirst", kind: models.KindHealthSavings,
			payload: map[string]any{
				"current_balance":            6200.0,
				"annual_contribution_limit":  4300.0,
				"current_year_contributions": 2100.0,
				"employer_contributions":     750.0,
				"investment_balance":         4000.0,
				"cash_balance":               2200.0,
			},
			startValue: 5000,
		},
	}

	for _, seed := range seeds {
		id, err := st.CreateAccount(ctx, store.NewAccount{
			Name:        seed.name,
			Institution: seed.institution,
			Kind:        seed.kind,
			Payload:     seed.payload,
			Demo:        true,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to seed %s: %w", seed.name, err)
		}

		if seed.kind == models.KindBrokerage {
			if err := seedPositions(ctx, st, id); err != nil {
				return 0, err
			}
		}
		if err := seedHistory(ctx, led, id, seed.startValue, now, rng); err != nil {
			return 0, err
		}
	}
	return len(seeds), nil
}

func seedPositions(ctx context.Context, st *store.Store, accountID string) error {
	purchase := time.Now().UTC().AddDate(-1, -3, 0)
	holdings := []struct {
		symbol string
		shares float64
		price  float64
	}{
		{"VTI", 25, 210.50},
		{"AAPL", 12, 168.30},
		{"MSFT", 8, 310.10},
	}
	for _, h := range holdings {
		if _, err := st.AddPosition(ctx, accountID, h.symbol, h.shares, h.price, purchase); err != nil {
			return fmt.Errorf("failed to seed position %s: %w", h.symbol, err)
		}
	}
	return nil
}

// seedHistory appends a year of weekly snapshots drifting upward from the
// start value, with a little noise so analytics has something to chew on.
func seedHistory(ctx context.Context, led *ledger.Ledger, accountID string,
	startValue float64, now time.Time, rng *rand.Rand) error {

	const weeks = 52
	value := startValue
	for week := 0; week <= weeks; week++ {
		ts := now.AddDate(0, 0, -7*(weeks-week))
		kind := models.ChangeManual
		if week == 0 {
			kind = models.ChangeInitial
		}
		if _, err := led.AppendAt(ctx, accountID, ts, value, kind, nil); err != nil {
			return fmt.Errorf("failed to seed history for %s: %w", accountID, err)
		}
		noise := (rng.Float64() - 0.45) * weeklyDrift * value
		value = value * (1 + weeklyDrift) + noise
	}
	return nil
}
