// Package insights derives read-only analyses from a profile: budget health,
// upcoming obligations, a composite risk score, and investment reminders.
// Nothing here moves money or mutates the profile.
package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/projection"
)

// OverallBudgetStatus is the month-level health grade.
type OverallBudgetStatus string

const (
	BudgetHealthy        OverallBudgetStatus = "healthy"
	BudgetOK             OverallBudgetStatus = "good"
	BudgetNeedsAttention OverallBudgetStatus = "needs_attention"
)

// CategoryAnalysis is one category's position, with subcategory detail.
type CategoryAnalysis struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	MonthlyBudget decimal.Decimal     `json:"monthlyBudget"`
	CurrentSpent  decimal.Decimal     `json:"currentSpent"`
	PercentUsed   decimal.Decimal     `json:"percentUsed"`
	Status        domain.BudgetStatus `json:"status"`
	Subcategories []CategoryAnalysis  `json:"subcategories,omitempty"`
}

// BudgetAnalysis is the month-to-date budget picture.
type BudgetAnalysis struct {
	OverallStatus         OverallBudgetStatus `json:"overallStatus"`
	Categories            []CategoryAnalysis  `json:"categories"`
	TotalBudget           decimal.Decimal     `json:"totalBudget"`
	TotalSpent            decimal.Decimal     `json:"totalSpent"`
	Remaining             decimal.Decimal     `json:"remaining"`
	DaysLeftInMonth       int                 `json:"daysLeftInMonth"`
	ProjectedMonthlySpend decimal.Decimal     `json:"projectedMonthlySpend"`
}

// AnalyzeBudget grades every spending category at the given point in the
// month and projects the month-end total from the daily spend rate so far.
func AnalyzeBudget(user domain.UserProfile, now time.Time) BudgetAnalysis {
	dayOfMonth := now.Day()
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()

	totalBudget := decimal.Zero
	totalSpent := decimal.Zero
	categories := make([]CategoryAnalysis, 0, len(user.SpendingCategories))
	for _, c := range user.SpendingCategories {
		totalBudget = totalBudget.Add(c.MonthlyBudget)
		totalSpent = totalSpent.Add(c.CurrentSpent)
		categories = append(categories, analyzeCategory(c))
	}

	dailyRate := totalSpent.Div(decimal.NewFromInt(int64(dayOfMonth)))
	projected := dailyRate.Mul(decimal.NewFromInt(int64(daysInMonth))).Round(0)

	overBudget := 0
	warnings := 0
	for _, c := range categories {
		switch c.Status {
		case domain.BudgetOver:
			overBudget++
		case domain.BudgetWarning:
			warnings++
		}
	}

	var overall OverallBudgetStatus
	switch {
	case overBudget > 0 || projected.GreaterThan(totalBudget.Mul(decimal.NewFromFloat(1.1))):
		overall = BudgetNeedsAttention
	case warnings > 0 || projected.GreaterThan(totalBudget.Mul(decimal.NewFromFloat(0.95))):
		overall = BudgetOK
	default:
		overall = BudgetHealthy
	}

	return BudgetAnalysis{
		OverallStatus:         overall,
		Categories:            categories,
		TotalBudget:           totalBudget,
		TotalSpent:            totalSpent.Round(2),
		Remaining:             totalBudget.Sub(totalSpent).Round(2),
		DaysLeftInMonth:       daysInMonth - dayOfMonth,
		ProjectedMonthlySpend: projected,
	}
}

func analyzeCategory(c domain.SpendingCategory) CategoryAnalysis {
	percentUsed := decimal.Zero
	switch {
	case c.MonthlyBudget.GreaterThan(decimal.Zero):
		percentUsed = c.CurrentSpent.Div(c.MonthlyBudget).Mul(decimal.NewFromInt(100))
	case c.CurrentSpent.GreaterThan(decimal.Zero):
		// Spending with no budget set reads as fully used.
		percentUsed = decimal.NewFromInt(100)
	}

	analysis := CategoryAnalysis{
		ID:            c.ID,
		Name:          c.Name,
		MonthlyBudget: c.MonthlyBudget,
		CurrentSpent:  c.CurrentSpent,
		PercentUsed:   percentUsed.Round(1),
		Status:        projection.BudgetStatusForPercent(percentUsed),
	}
	for _, sub := range c.Subcategories {
		analysis.Subcategories = append(analysis.Subcategories, analyzeCategory(sub))
	}
	return analysis
}

// SummaryMessage renders the analysis as one conversational sentence.
func (a BudgetAnalysis) SummaryMessage() string {
	var over, warning []string
	for _, c := range a.Categories {
		switch c.Status {
		case domain.BudgetOver:
			over = append(over, c.Name)
		case domain.BudgetWarning:
			warning = append(warning, c.Name)
		}
	}

	switch a.OverallStatus {
	case BudgetHealthy:
		return fmt.Sprintf("You're doing great! $%s remaining in your budget with %d days left this month.",
			a.Remaining.StringFixed(2), a.DaysLeftInMonth)
	case BudgetOK:
		if len(warning) > 0 {
			verb := "are"
			if len(warning) == 1 {
				verb = "is"
			}
			return fmt.Sprintf("Budget looks okay. %s %s getting close to the limit.",
				strings.Join(warning, ", "), verb)
		}
		return fmt.Sprintf("$%s remaining with %d days left. Pace yourself to stay on track.",
			a.Remaining.StringFixed(2), a.DaysLeftInMonth)
	default:
		if len(over) > 0 {
			verb := "have"
			if len(over) == 1 {
				verb = "has"
			}
			return fmt.Sprintf("Heads up: %s %s exceeded the budget.", strings.Join(over, ", "), verb)
		}
		return fmt.Sprintf("Budget needs attention. Consider reducing spending in the remaining %d days.",
			a.DaysLeftInMonth)
	}
}
