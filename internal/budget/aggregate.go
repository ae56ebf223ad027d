// Package budget computes monthly burn-down summaries from a category list
// and one month of transactions. It is pure: no I/O, no validation, no
// caching — callers own both the data fetch and any cache in front of it.
package budget

import (
	"github.com/dvloznov/family-budget/internal/domain"
)

// Status classifies a category's burn-down for the month.
type Status string

const (
	StatusOnTrack    Status = "on-track"
	StatusWarning    Status = "warning"
	StatusOverBudget Status = "over-budget"
	StatusNoBudget   Status = "no-budget-set"
)

// warningThreshold is the spent/budget ratio above which a category turns
// yellow. Strictly greater-than: exactly 80% is still on track.
const warningThreshold = 0.8

// CategoryStatus is one category's slice of the monthly summary. Remaining
// may be negative; over-budget is a representable state, not an error.
// ProgressRatio is nil when the category has no budget set.
type CategoryStatus struct {
	Category      domain.Category `json:"category"`
	Spent         float64         `json:"spent"`
	Remaining     float64         `json:"remaining"`
	ProgressRatio *float64        `json:"progress_ratio,omitempty"`
	Status        Status          `json:"status"`
}

// Summary is the aggregated monthly view. Totals cover budgeted categories
// only; uncategorized spend is a separate aggregate (see UncategorizedSpent).
type Summary struct {
	TotalBudget    float64          `json:"total_budget"`
	TotalSpent     float64          `json:"total_spent"`
	TotalRemaining float64          `json:"total_remaining"`
	PerCategory    []CategoryStatus `json:"per_category"`
}

// MonthlySpending sums transaction amounts per category id. Transactions
// without a category are skipped; they never count toward any envelope.
func MonthlySpending(txs []domain.Transaction) map[string]float64 {
	spending := make(map[string]float64)
	for _, tx := range txs {
		if tx.CategoryID == nil || *tx.CategoryID == "" {
			continue
		}
		spending[*tx.CategoryID] += tx.Amount
	}
	return spending
}

// UncategorizedSpent sums transactions with no resolvable category. Callers
// needing a grand total add this to Summary.TotalSpent themselves.
func UncategorizedSpent(categories []domain.Category, txs []domain.Transaction) float64 {
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	var total float64
	for _, tx := range txs {
		if tx.CategoryID == nil || *tx.CategoryID == "" || !known[*tx.CategoryID] {
			total += tx.Amount
		}
	}
	return total
}

// Aggregate computes the per-category burn-down and overall totals for one
// month. The category order of the input is preserved in PerCategory.
// Spending attributed to a dangling category id (no matching category row)
// is excluded, same as uncategorized spend.
func Aggregate(categories []domain.Category, txs []domain.Transaction) Summary {
	spending := MonthlySpending(txs)

	summary := Summary{
		PerCategory: make([]CategoryStatus, 0, len(categories)),
	}

	for _, cat := range categories {
		spent := spending[cat.ID]
		cs := CategoryStatus{
			Category:  cat,
			Spent:     spent,
			Remaining: cat.MonthlyBudget - spent,
			Status:    classify(spent, cat.MonthlyBudget),
		}
		if cat.MonthlyBudget > 0 {
			ratio := spent / cat.MonthlyBudget
			if ratio > 1 {
				ratio = 1
			}
			cs.ProgressRatio = &ratio
		}

		summary.TotalBudget += cat.MonthlyBudget
		summary.TotalSpent += spent
		summary.PerCategory = append(summary.PerCategory, cs)
	}

	summary.TotalRemaining = summary.TotalBudget - summary.TotalSpent
	return summary
}

// classify applies the status precedence: no budget, over budget, warning,
// on track. Never divides when the budget is zero.
func classify(spent, budget float64) Status {
	switch {
	case budget == 0:
		return StatusNoBudget
	case spent > budget:
		return StatusOverBudget
	case spent/budget > warningThreshold:
		return StatusWarning
	default:
		return StatusOnTrack
	}
}
