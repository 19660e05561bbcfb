package models

import (
	"math"
	"time"
)

// KindSpec couples the validator and the current-value function for one
// account kind.
type KindSpec struct {
	// Validate checks the kind-specific payload invariants. It returns a
	// *ValidationError naming the first violated field.
	Validate func(payload map[string]any, now time.Time) error

	// CurrentValue computes the account's value from its payload and, for
	// kinds that own positions, the position set.
	CurrentValue func(a *Account, positions []Position) float64
}

// Registry maps account kinds to their KindSpec. It is an explicit value
// built at startup and passed into the store by reference; there is no
// process-wide registration table.
type Registry struct {
	kinds map[Kind]KindSpec
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Kind]KindSpec)}
}

// Register adds or replaces the spec for a kind.
func (r *Registry) Register(k Kind, spec KindSpec) {
	r.kinds[k] = spec
}

// Lookup returns the spec for a kind.
func (r *Registry) Lookup(k Kind) (KindSpec, bool) {
	spec, ok := r.kinds[k]
	return spec, ok
}

// Kinds lists the registered kinds.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	return out
}

// Validate dispatches to the kind's validator. Unknown kinds fail validation.
func (r *Registry) Validate(kind Kind, payload map[string]any, now time.Time) error {
	spec, ok := r.Lookup(kind)
	if !ok {
		return invalid("kind", string(kind), "unknown account kind")
	}
	return spec.Validate(payload, now)
}

// DefaultRegistry builds a registry with the six supported kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(KindTermDeposit, KindSpec{
		Validate:     validateTermDeposit,
		CurrentValue: payloadValue("current_value"),
	})
	r.Register(KindSavings, KindSpec{
		Validate:     validateSavings,
		CurrentValue: payloadValue("current_balance"),
	})
	r.Register(KindRetirement, KindSpec{
		Validate:     validateRetirement,
		CurrentValue: payloadValue("current_balance"),
	})
	r.Register(KindBrokerage, KindSpec{
		Validate:     validateBrokerage,
		CurrentValue: brokerageValue,
	})
	r.Register(KindInflationBond, KindSpec{
		Validate:     validateInflationBond,
		CurrentValue: payloadValue("current_value"),
	})
	r.Register(KindHealthSavings, KindSpec{
		Validate:     validateHealthSavings,
		CurrentValue: payloadValue("current_balance"),
	})

	return r
}

func payloadValue(field string) func(*Account, []Position) float64 {
	return func(a *Account, _ []Position) float64 {
		v, _ := payloadNumber(a.Payload, field)
		return v
	}
}

// brokerageValue is cash plus the marked (or cost-basis) value of every
// position.
func brokerageValue(a *Account, positions []Position) float64 {
	cash, _ := payloadNumber(a.Payload, "cash_balance")
	for i := range positions {
		cash += positions[i].CurrentValue()
	}
	return cash
}

func validateTermDeposit(p map[string]any, now time.Time) error {
	if err := requirePositive(p, "principal_amount"); err != nil {
		return err
	}
	if err := requireNonNegative(p, "interest_rate"); err != nil {
		return err
	}
	if err := requireNonNegative(p, "current_value"); err != nil {
		return err
	}
	maturity, ok := payloadDate(p, "maturity_date")
	if !ok {
		return invalid("maturity_date", p["maturity_date"], "must be an ISO-8601 date")
	}
	if !maturity.After(now) {
		return invalid("maturity_date", maturity.Format("2006-01-02"), "must be in the future")
	}
	return nil
}

func validateSavings(p map[string]any, _ time.Time) error {
	if err := requireNonNegative(p, "current_balance"); err != nil {
		return err
	}
	return requireNonNegative(p, "interest_rate")
}

func validateRetirement(p map[string]any, _ time.Time) error {
	for _, field := range []string{"current_balance", "employer_match", "employer_contribution"} {
		if err := requireNonNegative(p, field); err != nil {
			return err
		}
	}
	return requirePositive(p, "contribution_limit")
}

func validateBrokerage(p map[string]any, _ time.Time) error {
	broker, ok := payloadString(p, "broker_name")
	if !ok || broker == "" {
		return invalid("broker_name", p["broker_name"], "cannot be empty")
	}
	return requireNonNegative(p, "cash_balance")
}

func validateInflationBond(p map[string]any, now time.Time) error {
	if err := requirePositive(p, "purchase_amount"); err != nil {
		return err
	}
	if err := requireNonNegative(p, "current_value"); err != nil {
		return err
	}
	if err := requireNonNegative(p, "fixed_rate"); err != nil {
		return err
	}
	// Inflation rate may be negative; only type-check it.
	if v, present := p["inflation_rate"]; present {
		if _, ok := payloadNumber(p, "inflation_rate"); !ok {
			return invalid("inflation_rate", v, "must be a number")
		}
	}
	purchase, ok := payloadDate(p, "purchase_date")
	if !ok {
		return invalid("purchase_date", p["purchase_date"], "must be an ISO-8601 date")
	}
	if purchase.After(now) {
		return invalid("purchase_date", purchase.Format("2006-01-02"), "cannot be in the future")
	}
	maturity, ok := payloadDate(p, "maturity_date")
	if !ok {
		return invalid("maturity_date", p["maturity_date"], "must be an ISO-8601 date")
	}
	if !maturity.After(purchase) {
		return invalid("maturity_date", maturity.Format("2006-01-02"), "must be after purchase date")
	}
	return nil
}

func validateHealthSavings(p map[string]any, _ time.Time) error {
	fields := []string{
		"current_balance",
		"annual_contribution_limit",
		"current_year_contributions",
		"employer_contributions",
		"investment_balance",
		"cash_balance",
	}
	for _, field := range fields {
		if err := requireNonNegative(p, field); err != nil {
			return err
		}
	}

	current, _ := payloadNumber(p, "current_balance")
	cash, _ := payloadNumber(p, "cash_balance")
	invested, _ := payloadNumber(p, "investment_balance")
	if math.Abs(cash+invested-current) > balanceTolerance {
		return invalid("current_balance", current,
			"investment_balance + cash_balance must equal current_balance")
	}

	limit, _ := payloadNumber(p, "annual_contribution_limit")
	contributed, _ := payloadNumber(p, "current_year_contributions")
	if contributed > limit {
		return invalid("current_year_contributions", contributed,
			"cannot exceed annual_contribution_limit")
	}
	return nil
}
