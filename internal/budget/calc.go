// Package budget aggregates transactions, overrides, and period
// parameters into the two household budget views. All functions are
// pure and safe for concurrent use.
package budget

import (
	"familybudget/internal/core"
)

const (
	// DefaultCheckingFloor is the minimum checking balance reserved out
	// of the paycheck-relative available budget.
	DefaultCheckingFloor = 4700
	// DefaultMortgageCarveout is the per-period mortgage share set aside
	// before discretionary spending.
	DefaultMortgageCarveout = 566.67
)

// Params carries everything a budget view needs. NewParams prefills the
// documented defaults; callers overwrite whichever fields the period
// actually specifies.
type Params struct {
	StartingCheckingBalance float64
	PaycheckAmount          float64
	OneTimeIncome           float64
	CheckingFloor           float64
	MortgageCarveout        float64
	SavingsAmount           float64
	Transactions            []core.Transaction
	Overrides               core.Overrides
}

// NewParams returns Params with the default checking floor and mortgage
// carveout; savings and one-time income default to zero.
func NewParams() Params {
	return Params{
		CheckingFloor:    DefaultCheckingFloor,
		MortgageCarveout: DefaultMortgageCarveout,
	}
}

// PaycheckBudget answers "how much can I still spend this period":
// income relative to the checking floor, minus carveouts and spending.
type PaycheckBudget struct {
	AvailableBudget  float64
	RemainingBudget  float64
	TotalSpending    float64
	TotalIncome      float64
	OneTimeIncome    float64
	MortgageCarveout float64
	SavingsAmount    float64
	CardTotals       map[core.PaymentMethod]float64
}

// CheckingBudget answers "what will my checking account literally show":
// the floor is not subtracted here.
type CheckingBudget struct {
	ProjectedChecking float64
	TotalSpending     float64
	TotalIncome       float64
	OneTimeIncome     float64
	MortgageCarveout  float64
	SavingsAmount     float64
	CardTotals        map[core.PaymentMethod]float64
}

// CardTotal returns one account's total for the period. A set override
// wins verbatim, whatever the transactions say; otherwise the account's
// transaction amounts are summed.
func CardTotal(transactions []core.Transaction, method core.PaymentMethod, override *float64) float64 {
	if override != nil {
		return *override
	}
	var sum float64
	for _, t := range transactions {
		if t.PaymentMethod == method {
			sum += t.Amount
		}
	}
	return sum
}

// AllCardTotals applies CardTotal across the fixed payment-method set.
// Every method is present in the result, zero or not.
func AllCardTotals(transactions []core.Transaction, overrides core.Overrides) map[core.PaymentMethod]float64 {
	totals := make(map[core.PaymentMethod]float64, len(core.PaymentMethods))
	for _, method := range core.PaymentMethods {
		var override *float64
		if v, ok := overrides.Lookup(method); ok {
			override = &v
		}
		totals[method] = CardTotal(transactions, method, override)
	}
	return totals
}

// TotalSpending sums the per-account totals, overrides included.
func TotalSpending(transactions []core.Transaction, overrides core.Overrides) float64 {
	var sum float64
	for _, total := range AllCardTotals(transactions, overrides) {
		sum += total
	}
	return sum
}

// CalculatePaycheck computes the paycheck-relative view:
//
//	totalIncome     = paycheckAmount + oneTimeIncome
//	availableBudget = (startingCheckingBalance - checkingFloor) + totalIncome
//	remainingBudget = availableBudget - mortgageCarveout - savingsAmount - totalSpending
//
// RemainingBudget is not clamped; negative means over budget.
func CalculatePaycheck(p Params) PaycheckBudget {
	totalSpending := TotalSpending(p.Transactions, p.Overrides)
	totalIncome := p.PaycheckAmount + p.OneTimeIncome
	availableBudget := (p.StartingCheckingBalance - p.CheckingFloor) + totalIncome
	remainingBudget := availableBudget - p.MortgageCarveout - p.SavingsAmount - totalSpending

	return PaycheckBudget{
		AvailableBudget:  availableBudget,
		RemainingBudget:  remainingBudget,
		TotalSpending:    totalSpending,
		TotalIncome:      totalIncome,
		OneTimeIncome:    p.OneTimeIncome,
		MortgageCarveout: p.MortgageCarveout,
		SavingsAmount:    p.SavingsAmount,
		CardTotals:       AllCardTotals(p.Transactions, p.Overrides),
	}
}

// CalculateChecking computes the checking-projection view:
//
//	projectedChecking = startingCheckingBalance + totalIncome - mortgageCarveout - savingsAmount - totalSpending
func CalculateChecking(p Params) CheckingBudget {
	totalSpending := TotalSpending(p.Transactions, p.Overrides)
	totalIncome := p.PaycheckAmount + p.OneTimeIncome
	projectedChecking := p.StartingCheckingBalance + totalIncome - p.MortgageCarveout - p.SavingsAmount - totalSpending

	return CheckingBudget{
		ProjectedChecking: projectedChecking,
		TotalSpending:     totalSpending,
		TotalIncome:       totalIncome,
		OneTimeIncome:     p.OneTimeIncome,
		MortgageCarveout:  p.MortgageCarveout,
		SavingsAmount:     p.SavingsAmount,
		CardTotals:        AllCardTotals(p.Transactions, p.Overrides),
	}
}
