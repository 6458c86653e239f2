// Package projection holds the pure numeric kernel: compound-growth future
// value, time-to-goal, goal impact, budget status, and liquidity impact. Every
// function is deterministic and side-effect free.
package projection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
)

// Assumed annual return rates. Money held in checking earns nothing.
var (
	DefaultAnnualReturn = decimal.NewFromFloat(0.07)
	SavingsReturn       = decimal.NewFromFloat(0.04)
	CheckingReturn      = decimal.Zero
)

// maxProjectionMonths caps iterative projections at 100 years; anything
// beyond is reported as unreachable.
const maxProjectionMonths = 1200

var (
	decimalZero    = decimal.Zero
	decimalOne     = decimal.NewFromInt(1)
	decimalTwelve  = decimal.NewFromInt(12)
	decimalHundred = decimal.NewFromInt(100)
)

// FutureValue projects principal under monthly compounding with a
// contribution added at the end of each month, rounded to cents.
func FutureValue(principal, monthlyContribution, annualRate decimal.Decimal, months int) decimal.Decimal {
	monthlyRate := annualRate.Div(decimalTwelve)
	growth := decimalOne.Add(monthlyRate)
	value := principal
	for m := 0; m < months; m++ {
		value = value.Mul(growth).Add(monthlyContribution)
	}
	return value.Round(2)
}

// TimeToGoal returns the months required for a monthly contribution stream to
// close a funding gap under monthly compounding. A gap of zero or less needs
// no time; a non-positive contribution can never close a positive gap and
// yields domain.UnreachableMonths. Never divides by zero.
func TimeToGoal(gap, monthlyContribution, annualRate decimal.Decimal) int {
	if gap.LessThanOrEqual(decimalZero) {
		return 0
	}
	if monthlyContribution.LessThanOrEqual(decimalZero) {
		return domain.UnreachableMonths
	}
	if annualRate.LessThanOrEqual(decimalZero) {
		return int(gap.Div(monthlyContribution).Ceil().IntPart())
	}
	growth := decimalOne.Add(annualRate.Div(decimalTwelve))
	value := decimalZero
	for m := 1; m <= maxProjectionMonths; m++ {
		value = value.Mul(growth).Add(monthlyContribution)
		if value.GreaterThanOrEqual(gap) {
			return m
		}
	}
	return domain.UnreachableMonths
}

// monthsToTarget iterates an existing balance growing at annualRate until it
// reaches target. Used for the before/after comparison inside GoalImpact.
func monthsToTarget(current, target, annualRate decimal.Decimal) int {
	if current.GreaterThanOrEqual(target) {
		return 0
	}
	if annualRate.LessThanOrEqual(decimalZero) || current.LessThanOrEqual(decimalZero) {
		return domain.UnreachableMonths
	}
	growth := decimalOne.Add(annualRate.Div(decimalTwelve))
	balance := current
	for m := 1; m <= maxProjectionMonths; m++ {
		balance = balance.Mul(growth)
		if balance.GreaterThanOrEqual(target) {
			return m
		}
	}
	return domain.UnreachableMonths
}

// GoalImpact measures how adding contribution dollars moves a goal: progress
// percent change, growth-only time-to-goal before and after, and the
// contribution's projected value at the goal deadline.
func GoalImpact(goal domain.FinancialGoal, contribution, annualRate decimal.Decimal, now time.Time) domain.GoalImpact {
	impact := domain.GoalImpact{GoalID: goal.ID, GoalName: goal.Name}

	if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
		// Already funded; overshoot is valid and there is nothing to move.
		fv := goal.CurrentAmount
		impact.FutureValue = &fv
		return impact
	}
	if contribution.IsZero() {
		impact.TimeToGoalBefore = domain.UnreachableMonths
		impact.TimeToGoalAfter = domain.UnreachableMonths
		return impact
	}

	if goal.TargetAmount.GreaterThan(decimalZero) {
		impact.ProgressChangePct = contribution.Div(goal.TargetAmount).Mul(decimalHundred).Round(1)
	}

	impact.TimeToGoalBefore = monthsToTarget(goal.CurrentAmount, goal.TargetAmount, annualRate)
	impact.TimeToGoalAfter = monthsToTarget(goal.CurrentAmount.Add(contribution), goal.TargetAmount, annualRate)
	if impact.TimeToGoalBefore != domain.UnreachableMonths &&
		impact.TimeToGoalAfter != domain.UnreachableMonths &&
		impact.TimeToGoalBefore > impact.TimeToGoalAfter {
		impact.TimeSaved = impact.TimeToGoalBefore - impact.TimeToGoalAfter
	}

	if annualRate.GreaterThan(decimalZero) {
		if months := monthsBetween(now, goal.Deadline); months > 0 {
			fv := FutureValue(contribution, decimalZero, annualRate, months)
			impact.FutureValue = &fv
		}
	}
	return impact
}

// BudgetStatusForPercent maps a percent-used figure to its health band.
// Band lower bounds are inclusive: exactly 50 is good, 80 is warning,
// 100 is over.
func BudgetStatusForPercent(percentUsed decimal.Decimal) domain.BudgetStatus {
	switch {
	case percentUsed.LessThan(decimal.NewFromInt(50)):
		return domain.BudgetUnder
	case percentUsed.LessThan(decimal.NewFromInt(80)):
		return domain.BudgetGood
	case percentUsed.LessThan(decimalHundred):
		return domain.BudgetWarning
	default:
		return domain.BudgetOver
	}
}

// BudgetStatusFor reports the category's position after an additional spend.
// A non-positive budget means no budget is set: percent used is zero and the
// category reads as under.
func BudgetStatusFor(category domain.SpendingCategory, additionalSpend decimal.Decimal) domain.BudgetImpact {
	spent := category.CurrentSpent.Add(additionalSpend)
	impact := domain.BudgetImpact{
		CategoryID:      category.ID,
		CategoryName:    category.Name,
		AmountRemaining: category.MonthlyBudget.Sub(spent),
	}
	if category.MonthlyBudget.LessThanOrEqual(decimalZero) {
		impact.PercentUsed = decimalZero
		impact.Status = domain.BudgetUnder
		return impact
	}
	impact.PercentUsed = spent.Div(category.MonthlyBudget).Mul(decimalHundred)
	impact.Status = BudgetStatusForPercent(impact.PercentUsed)
	return impact
}

// MonthsOfExpenses returns how many months of expenses the liquid balances
// (checking + savings) cover. Zero expenses cover indefinitely; a large
// constant stands in for "effectively unlimited".
func MonthsOfExpenses(accounts domain.Accounts, monthlyExpenses decimal.Decimal) decimal.Decimal {
	if monthlyExpenses.LessThanOrEqual(decimalZero) {
		return decimal.NewFromInt(maxProjectionMonths)
	}
	return accounts.Liquid().Div(monthlyExpenses)
}

// LiquidityImpact describes, in prose, how many months of expenses remain
// liquid after an action and which direction the balance moved.
func LiquidityImpact(before, after domain.Accounts, monthlyExpenses decimal.Decimal) string {
	delta := after.Liquid().Sub(before.Liquid())

	var direction string
	switch {
	case delta.GreaterThan(decimalZero):
		direction = fmt.Sprintf("Liquid assets increase by $%s.", delta.StringFixed(2))
	case delta.LessThan(decimalZero):
		direction = fmt.Sprintf("Liquid assets decrease by $%s.", delta.Abs().StringFixed(2))
	default:
		direction = "No change to liquid assets."
	}

	if monthlyExpenses.LessThanOrEqual(decimalZero) {
		return direction + " No recorded monthly expenses to measure coverage against."
	}

	months := MonthsOfExpenses(after, monthlyExpenses)
	coverage := fmt.Sprintf("%s months of expenses remain in checking and savings", months.Round(1).String())
	switch {
	case months.LessThan(decimalOne):
		return fmt.Sprintf("%s Critical: %s.", direction, coverage)
	case months.LessThan(decimal.NewFromInt(3)):
		return fmt.Sprintf("%s Thin buffer: %s.", direction, coverage)
	case months.LessThan(decimal.NewFromInt(6)):
		return fmt.Sprintf("%s Adequate buffer: %s.", direction, coverage)
	default:
		return fmt.Sprintf("%s Strong buffer: %s.", direction, coverage)
	}
}

// monthsBetween counts whole calendar months from a to b, zero when b is not
// after a.
func monthsBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// MonthsBetween is the exported form used by the feasibility ranker and
// recommendation engine.
func MonthsBetween(a, b time.Time) int {
	return monthsBetween(a, b)
}
