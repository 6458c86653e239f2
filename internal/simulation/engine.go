// Package simulation composes the projection primitives and the guardrail
// checker into full two-branch scenarios for the three action kinds, plus a
// side-by-side comparison mode and an apply step that folds the "if do"
// branch back into a profile.
package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/guardrail"
	"github.com/pfsim/pfsim/internal/projection"
)

// ErrUnknownActionType reports an action type outside save/invest/spend.
// It is a programmer error and surfaces directly to the caller.
var ErrUnknownActionType = errors.New("unknown action type")

// DefaultInvestmentHorizonYears is the projection window used when an invest
// action does not specify one.
const DefaultInvestmentHorizonYears = 5

// minTransactionHistory is the number of recorded transactions below which a
// projection is flagged as backed by sparse data.
const minTransactionHistory = 5

// Engine runs deterministic what-if simulations over immutable profiles.
// It holds only assumptions, never user state, so one engine serves all users.
type Engine struct {
	AnnualReturn  decimal.Decimal
	SavingsReturn decimal.Decimal

	// Now supplies the clock so projections stay reproducible under test.
	Now func() time.Time
}

// NewEngine creates an engine with the standard return assumptions.
func NewEngine() *Engine {
	return &Engine{
		AnnualReturn:  projection.DefaultAnnualReturn,
		SavingsReturn: projection.SavingsReturn,
		Now:           time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// SimulateSave projects moving amount from checking to savings, optionally
// crediting a goal.
func (e *Engine) SimulateSave(user domain.UserProfile, amount decimal.Decimal, goalID string) *domain.SimulationResult {
	after := user.Accounts.Clone()
	after.Checking = after.Checking.Sub(amount)
	after.Savings = after.Savings.Add(amount)

	action := domain.FinancialAction{
		Type:            domain.ActionSave,
		Amount:          amount,
		TargetAccountID: "savings",
		GoalID:          goalID,
	}

	var goalImpacts []domain.GoalImpact
	goal := user.GoalByID(goalID)
	if goal != nil {
		goalImpacts = append(goalImpacts, projection.GoalImpact(*goal, amount, e.SavingsReturn, e.now()))
	}
	budgetImpacts := e.statusQuoBudgetImpacts(user)

	report := guardrail.Check(user.Preferences.Guardrails, user.Accounts, after, action)
	validation := e.validate(user, after, report, nil, []string{
		"Savings account return rate assumed at 4% APY",
	})

	ifDo := domain.Scenario{
		AccountsAfter:   after,
		GoalImpacts:     goalImpacts,
		BudgetImpacts:   budgetImpacts,
		LiquidityImpact: projection.LiquidityImpact(user.Accounts, after, user.MonthlyExpenses()) + " Savings remain fully liquid.",
		RiskImpact:      "No change in risk. Savings are FDIC insured.",
		TimelineChanges: progressTimeline(goalImpacts),
	}
	ifDont := e.statusQuoScenario(user, goalImpacts, budgetImpacts,
		"No change to liquid assets.",
		"No change in risk exposure.")

	reasoning := fmt.Sprintf("Saving $%s increases emergency reserves. Funds remain liquid and FDIC insured.", amount.StringFixed(0))
	if goal != nil && len(goalImpacts) > 0 {
		reasoning = fmt.Sprintf("Saving $%s will increase %s progress by %s%%. Funds remain liquid and low-risk.",
			amount.StringFixed(0), goal.Name, goalImpacts[0].ProgressChangePct.String())
	}

	return &domain.SimulationResult{
		Action:           action,
		ScenarioIfDo:     ifDo,
		ScenarioIfDont:   ifDont,
		Confidence:       validation.OverallConfidence,
		Reasoning:        reasoning,
		ValidationResult: validation,
	}
}

// SimulateInvest projects moving amount from checking into the named
// investment slot, optionally crediting a goal. Empty or unknown slot names
// fall back to taxable. horizonYears defaults to
// DefaultInvestmentHorizonYears when non-positive.
func (e *Engine) SimulateInvest(user domain.UserProfile, amount decimal.Decimal, accountType, goalID string, horizonYears int) *domain.SimulationResult {
	if horizonYears <= 0 {
		horizonYears = DefaultInvestmentHorizonYears
	}
	if accountType == "" {
		accountType = "taxable"
	}

	after := user.Accounts.Clone()
	after.Checking = after.Checking.Sub(amount)
	slot := after.Investments.Slot(accountType)
	if slot == nil {
		// Unknown slot names land in taxable so every debit has a matching
		// credit.
		accountType = "taxable"
		slot = &after.Investments.Taxable
	}
	slot.Balance = slot.Balance.Add(amount)

	action := domain.FinancialAction{
		Type:            domain.ActionInvest,
		Amount:          amount,
		TargetAccountID: accountType,
		GoalID:          goalID,
	}

	futureValue := projection.FutureValue(amount, decimal.Zero, e.AnnualReturn, horizonYears*12)
	projectedGain := futureValue.Sub(amount)

	var goalImpacts []domain.GoalImpact
	goal := user.GoalByID(goalID)
	if goal != nil {
		goalImpacts = append(goalImpacts, projection.GoalImpact(*goal, amount, e.AnnualReturn, e.now()))
	}
	budgetImpacts := e.statusQuoBudgetImpacts(user)

	report := guardrail.Check(user.Preferences.Guardrails, user.Accounts, after, action)
	validation := e.validate(user, after, report, nil, []string{
		"Market returns assumed at 7% historical average",
		"Does not account for market volatility or downturns",
		fmt.Sprintf("Projection is for %d year time horizon", horizonYears),
	})
	// Markets stay uncertain even when every guardrail passes.
	if validation.OverallConfidence == domain.ConfidenceHigh {
		validation.OverallConfidence = domain.ConfidenceMedium
	}

	ifDo := domain.Scenario{
		AccountsAfter: after,
		GoalImpacts:   goalImpacts,
		BudgetImpacts: budgetImpacts,
		LiquidityImpact: fmt.Sprintf("Moderate decrease in liquidity. Checking reduced by $%s. Investment can be sold but may lose short-term value.",
			amount.StringFixed(0)),
		RiskImpact: fmt.Sprintf("Moderate risk increase. $%s exposed to market volatility. Projected value in %d years: $%s (+$%s at 7%% annual return).",
			amount.StringFixed(0), horizonYears, futureValue.StringFixed(2), projectedGain.StringFixed(2)),
		TimelineChanges: append(
			[]string{fmt.Sprintf("Investment projected to grow to $%s in %d years", futureValue.StringFixed(2), horizonYears)},
			progressTimeline(goalImpacts)...),
	}
	ifDont := e.statusQuoScenario(user, goalImpacts, budgetImpacts,
		"No change to liquidity.",
		fmt.Sprintf("Opportunity cost: Potential $%s in gains not realized.", projectedGain.StringFixed(2)))

	var reasoning string
	if goal != nil {
		gainPct := decimal.Zero
		if amount.GreaterThan(decimal.Zero) {
			gainPct = projectedGain.Div(amount).Mul(decimal.NewFromInt(100)).Round(1)
		}
		fit := "Aligns with your risk profile."
		if user.Preferences.RiskTolerance == domain.RiskConservative {
			fit = "Consider your conservative risk tolerance."
		}
		reasoning = fmt.Sprintf("Investing $%s supports %s. Expected value in %d years: $%s (+%s%% gain). %s",
			amount.StringFixed(0), goal.Name, horizonYears, futureValue.StringFixed(2), gainPct.String(), fit)
	} else {
		reasoning = fmt.Sprintf("Investing $%s in %s provides growth potential. Projected value: $%s in %d years.",
			amount.StringFixed(0), accountType, futureValue.StringFixed(2), horizonYears)
	}

	return &domain.SimulationResult{
		Action:           action,
		ScenarioIfDo:     ifDo,
		ScenarioIfDont:   ifDont,
		Confidence:       validation.OverallConfidence,
		Reasoning:        reasoning,
		ValidationResult: validation,
	}
}

// SimulateSpend projects spending amount from checking against a category.
// The category's budget threshold is untouched; only CurrentSpent would move.
func (e *Engine) SimulateSpend(user domain.UserProfile, amount decimal.Decimal, categoryRef string) *domain.SimulationResult {
	after := user.Accounts.Clone()
	after.Checking = after.Checking.Sub(amount)

	action := domain.FinancialAction{
		Type:     domain.ActionSpend,
		Amount:   amount,
		Category: categoryRef,
	}

	category := user.CategoryByRef(categoryRef)
	budgetImpacts := make([]domain.BudgetImpact, 0, len(user.SpendingCategories))
	var categoryImpact *domain.BudgetImpact
	for _, c := range user.SpendingCategories {
		add := decimal.Zero
		if category != nil && c.ID == category.ID {
			add = amount
		}
		impact := projection.BudgetStatusFor(c, add)
		budgetImpacts = append(budgetImpacts, impact)
		if category != nil && c.ID == category.ID {
			categoryImpact = &budgetImpacts[len(budgetImpacts)-1]
		}
	}

	// Spending delays the high-priority goals without moving their balances.
	var goalImpacts []domain.GoalImpact
	for _, g := range user.Goals {
		if g.Priority <= 2 {
			goalImpacts = append(goalImpacts, domain.GoalImpact{
				GoalID:           g.ID,
				GoalName:         g.Name,
				TimeToGoalBefore: domain.UnreachableMonths,
				TimeToGoalAfter:  domain.UnreachableMonths,
			})
		}
	}

	var budgetWarning string
	var contradictions []string
	if categoryImpact != nil {
		switch categoryImpact.Status {
		case domain.BudgetOver:
			budgetWarning = fmt.Sprintf("Warning: This exceeds your %s budget by $%s",
				categoryImpact.CategoryName, categoryImpact.AmountRemaining.Abs().StringFixed(2))
			contradictions = append(contradictions, fmt.Sprintf("Spending exceeds %s budget", categoryImpact.CategoryName))
		case domain.BudgetWarning:
			budgetWarning = fmt.Sprintf("Caution: This uses %s%% of your %s budget",
				categoryImpact.PercentUsed.Round(1).String(), categoryImpact.CategoryName)
		}
	}

	report := guardrail.Check(user.Preferences.Guardrails, user.Accounts, after, action)
	validation := e.validate(user, after, report, contradictions, nil)

	var timeline []string
	if budgetWarning != "" {
		timeline = []string{budgetWarning}
	}
	ifDo := domain.Scenario{
		AccountsAfter: after,
		GoalImpacts:   goalImpacts,
		BudgetImpacts: budgetImpacts,
		LiquidityImpact: fmt.Sprintf("Checking balance reduced by $%s. Remaining: $%s.",
			amount.StringFixed(0), after.Checking.StringFixed(2)),
		RiskImpact:      "No change in investment risk exposure.",
		TimelineChanges: timeline,
	}

	potentialGrowth := projection.FutureValue(amount, decimal.Zero, e.AnnualReturn, DefaultInvestmentHorizonYears*12)
	ifDont := e.statusQuoScenario(user, goalImpacts, e.statusQuoBudgetImpacts(user),
		"No change to checking balance.",
		fmt.Sprintf("Opportunity: $%s could be saved or invested instead. If invested, potential value in 5 years: $%s.",
			amount.StringFixed(0), potentialGrowth.StringFixed(2)))

	var reasoning string
	if category != nil {
		within := budgetWarning
		if within == "" && categoryImpact != nil {
			within = fmt.Sprintf("Within budget (%s%% used).", categoryImpact.PercentUsed.Round(1).String())
		}
		reasoning = fmt.Sprintf("Spending $%s on %s. %s Opportunity cost: Could grow to $%s if invested instead.",
			amount.StringFixed(0), category.Name, within, potentialGrowth.StringFixed(2))
	} else {
		reasoning = fmt.Sprintf("Spending $%s. Consider saving or investing for long-term goals instead.", amount.StringFixed(0))
	}

	return &domain.SimulationResult{
		Action:           action,
		ScenarioIfDo:     ifDo,
		ScenarioIfDont:   ifDont,
		Confidence:       validation.OverallConfidence,
		Reasoning:        reasoning,
		ValidationResult: validation,
	}
}

// Simulate dispatches on the action type. Defaults match CompareOptions:
// invest targets taxable and spend targets "Miscellaneous" when unspecified.
func (e *Engine) Simulate(user domain.UserProfile, action domain.FinancialAction) (*domain.SimulationResult, error) {
	switch action.Type {
	case domain.ActionSave:
		return e.SimulateSave(user, action.Amount, action.GoalID), nil
	case domain.ActionInvest:
		return e.SimulateInvest(user, action.Amount, action.TargetAccountID, action.GoalID, 0), nil
	case domain.ActionSpend:
		category := action.Category
		if category == "" {
			category = "Miscellaneous"
		}
		return e.SimulateSpend(user, action.Amount, category), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownActionType, action.Type)
	}
}

// CompareOptions simulates each candidate action independently and returns
// one result per action in input order. Options never interact: this is a
// side-by-side view, not a zero-sum allocation.
func (e *Engine) CompareOptions(user domain.UserProfile, actions []domain.FinancialAction) ([]*domain.SimulationResult, error) {
	results := make([]*domain.SimulationResult, 0, len(actions))
	for _, action := range actions {
		res, err := e.Simulate(user, action)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ApplyAction simulates the action and folds the "if do" branch back into a
// fresh profile: accounts, linked goal progress, category spend, and
// UpdatedAt. The input profile is never mutated. Unknown action types return
// ErrUnknownActionType.
func (e *Engine) ApplyAction(user domain.UserProfile, action domain.FinancialAction) (domain.UserProfile, *domain.SimulationResult, error) {
	result, err := e.Simulate(user, action)
	if err != nil {
		return domain.UserProfile{}, nil, err
	}

	updated := user.Clone()
	updated.Accounts = result.ScenarioIfDo.AccountsAfter.Clone()

	switch action.Type {
	case domain.ActionSave, domain.ActionInvest:
		if action.GoalID != "" {
			if goal := updated.GoalByID(action.GoalID); goal != nil {
				goal.CurrentAmount = goal.CurrentAmount.Add(action.Amount)
			}
		}
	case domain.ActionSpend:
		ref := action.Category
		if ref == "" {
			ref = "Miscellaneous"
		}
		if category := updated.CategoryByRef(ref); category != nil {
			category.CurrentSpent = category.CurrentSpent.Add(action.Amount)
		}
	}

	updated.UpdatedAt = e.now()
	return updated, result, nil
}

// validate assembles the ValidationResult: guardrail outcome, contradictions
// (plausibility checks that cut across guardrails), uncertainty sources, and
// the overall confidence grade.
func (e *Engine) validate(user domain.UserProfile, after domain.Accounts, report guardrail.Report, contradictions, uncertainty []string) domain.ValidationResult {
	monthly := user.MonthlyExpenses()
	if report.Passed && projection.MonthsOfExpenses(after, monthly).LessThan(decimal.NewFromInt(1)) {
		contradictions = append(contradictions,
			"Guardrails passed but liquid reserves would cover less than one month of expenses")
	}

	sparse := user.TransactionCount() < minTransactionHistory
	if sparse {
		uncertainty = append(uncertainty,
			fmt.Sprintf("Limited transaction history (%d recorded); projections lean on budgets instead of observed spending", user.TransactionCount()))
	}

	confidence := domain.ConfidenceHigh
	switch {
	case !report.Passed:
		confidence = domain.ConfidenceLow
	case len(contradictions) > 0 || sparse:
		confidence = domain.ConfidenceMedium
	}

	return domain.ValidationResult{
		Passed:               report.Passed,
		ConstraintViolations: report.Violations,
		Contradictions:       contradictions,
		UncertaintySources:   uncertainty,
		OverallConfidence:    confidence,
	}
}

// statusQuoBudgetImpacts reports every category at its current position.
func (e *Engine) statusQuoBudgetImpacts(user domain.UserProfile) []domain.BudgetImpact {
	impacts := make([]domain.BudgetImpact, 0, len(user.SpendingCategories))
	for _, c := range user.SpendingCategories {
		impacts = append(impacts, projection.BudgetStatusFor(c, decimal.Zero))
	}
	return impacts
}

// statusQuoScenario builds the "if you don't" branch: balances untouched,
// goal impacts neutralized, and an opportunity-cost narrative.
func (e *Engine) statusQuoScenario(user domain.UserProfile, goalImpacts []domain.GoalImpact, budgetImpacts []domain.BudgetImpact, liquidity, risk string) domain.Scenario {
	neutral := make([]domain.GoalImpact, len(goalImpacts))
	for i, impact := range goalImpacts {
		neutral[i] = impact
		neutral[i].ProgressChangePct = decimal.Zero
		neutral[i].TimeSaved = 0
		neutral[i].FutureValue = nil
	}
	return domain.Scenario{
		AccountsAfter:   user.Accounts.Clone(),
		GoalImpacts:     neutral,
		BudgetImpacts:   budgetImpacts,
		LiquidityImpact: liquidity,
		RiskImpact:      risk,
		TimelineChanges: []string{},
	}
}

func progressTimeline(goalImpacts []domain.GoalImpact) []string {
	var lines []string
	for _, impact := range goalImpacts {
		if impact.TimeSaved > 0 {
			lines = append(lines, fmt.Sprintf("%s: Progress increased by %s%%", impact.GoalName, impact.ProgressChangePct.String()))
		}
	}
	return lines
}
