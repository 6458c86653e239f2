// Package stabilize implements a 30-day liquidity stability mode: it sizes a
// minimum safe buffer, pulls from taxable investments to close any shortfall,
// trims non-essential budgets, and tops up checking for daily cash flow.
package stabilize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/insights"
)

const (
	// minChecking is the checking floor maintained for daily safety.
	minChecking = 1000
	// bufferDays is how long stability mode stays active.
	bufferDays = 30
)

var (
	// discretionaryBufferRatio is the share of budgeted discretionary spend
	// assumed to actually occur during the buffer window.
	discretionaryBufferRatio = decimal.NewFromFloat(0.5)
	// maxTaxablePullPct caps how much of the taxable balance one run may move.
	maxTaxablePullPct = decimal.NewFromFloat(0.5)
	// discretionaryTrimPct is the cut applied to non-essential budgets.
	discretionaryTrimPct = decimal.NewFromFloat(0.15)
)

// nonEssentialNames marks categories whose budgets may be trimmed. Matching
// is case-insensitive on substrings.
var nonEssentialNames = []string{"dining", "entertainment", "shopping", "subscriptions", "hobbies", "travel", "dining out"}

// Action types emitted by a stabilization run.
const (
	ActionTransferToLiquidity = "transfer_to_liquidity"
	ActionReduceBudget        = "reduce_budget"
	ActionBufferChecking      = "buffer_checking"
)

// Action is one step the planner took.
type Action struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// BalanceSnapshot captures the liquid position at one point in time.
type BalanceSnapshot struct {
	Checking    decimal.Decimal `json:"checking"`
	Savings     decimal.Decimal `json:"savings"`
	TotalLiquid decimal.Decimal `json:"totalLiquid"`
}

// Plan is the outcome of a stabilization run: before/after positions, the
// buffer math, the actions taken, and the updated profile with stability mode
// recorded.
type Plan struct {
	Before            BalanceSnapshot    `json:"before"`
	After             BalanceSnapshot    `json:"after"`
	MinimumSafeBuffer decimal.Decimal    `json:"minimumSafeBuffer"`
	Shortfall         decimal.Decimal    `json:"shortfall"`
	Actions           []Action           `json:"actions"`
	Explanation       string             `json:"explanation"`
	UpdatedProfile    domain.UserProfile `json:"updatedProfile"`
	Start             time.Time          `json:"start"`
	End               time.Time          `json:"end"`
}

// Options tunes Run and Cancel.
type Options struct {
	// Now substitutes the clock for deterministic runs. Nil means time.Now.
	Now func() time.Time
	// Persist, when set, receives the updated profile before the plan is
	// returned.
	Persist func(domain.UserProfile)
}

// MinimumSafeBuffer is the liquid cushion needed for the next 30 days: fixed
// expenses plus half the discretionary budgets plus known upcoming expenses,
// floored at the checking minimum.
func MinimumSafeBuffer(user domain.UserProfile, now time.Time) decimal.Decimal {
	upcoming := insights.AnalyzeUpcomingExpenses(user, now)
	buffer := user.MonthlyFixedExpenses().
		Add(user.TotalDiscretionaryBudget().Mul(discretionaryBufferRatio)).
		Add(upcoming.TotalDueNext30Days)
	floor := decimal.NewFromInt(minChecking)
	if buffer.LessThan(floor) {
		return floor
	}
	return buffer
}

// Run activates stability mode: closes any buffer shortfall from taxable
// investments (capped at half the balance), trims non-essential budget
// thresholds by 15%, and keeps checking at or above the daily-safety floor.
// The input profile is not mutated; every change lands in the returned plan's
// UpdatedProfile.
func Run(user domain.UserProfile, opts Options) Plan {
	nowFn := time.Now
	if opts.Now != nil {
		nowFn = opts.Now
	}
	now := nowFn()
	end := now.AddDate(0, 0, bufferDays)

	before := snapshot(user.Accounts)
	buffer := MinimumSafeBuffer(user, now)
	shortfall := buffer.Sub(before.TotalLiquid)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}

	updated := user.Clone()
	var actions []Action

	taxable := &updated.Accounts.Investments.Taxable
	if shortfall.GreaterThan(decimal.Zero) && taxable.Balance.GreaterThan(decimal.Zero) {
		pull := decimal.Min(shortfall, taxable.Balance.Mul(maxTaxablePullPct), taxable.Balance)
		if pull.GreaterThan(decimal.Zero) {
			taxable.Balance = taxable.Balance.Sub(pull)
			updated.Accounts.Savings = updated.Accounts.Savings.Add(pull)
			actions = append(actions, Action{
				Type:        ActionTransferToLiquidity,
				Description: "Moved from taxable investment to savings to meet 30-day buffer",
				Amount:      pull,
			})
		}
	}

	for i := range updated.SpendingCategories {
		c := &updated.SpendingCategories[i]
		if !isNonEssential(c.Name) {
			continue
		}
		trim := c.MonthlyBudget.Mul(discretionaryTrimPct).Round(2)
		if trim.LessThanOrEqual(decimal.Zero) {
			continue
		}
		// Budgets are thresholds; trimming them moves no money.
		c.MonthlyBudget = c.MonthlyBudget.Sub(trim)
		if c.MonthlyBudget.IsNegative() {
			c.MonthlyBudget = decimal.Zero
		}
		actions = append(actions, Action{
			Type:        ActionReduceBudget,
			Description: fmt.Sprintf("Reduced %q budget to prioritize liquidity", c.Name),
			Amount:      trim,
		})
	}

	floor := decimal.NewFromInt(minChecking)
	if updated.Accounts.Checking.LessThan(floor) {
		needed := floor.Sub(updated.Accounts.Checking)
		if updated.Accounts.Savings.GreaterThanOrEqual(needed) {
			move := decimal.Min(needed, updated.Accounts.Savings)
			updated.Accounts.Checking = updated.Accounts.Checking.Add(move)
			updated.Accounts.Savings = updated.Accounts.Savings.Sub(move)
			actions = append(actions, Action{
				Type:        ActionBufferChecking,
				Description: fmt.Sprintf("Kept checking at or above $%d for daily safety", minChecking),
				Amount:      move,
			})
		}
	}

	updated.StabilizationMode = true
	updated.StabilizationStart = &now
	updated.StabilizationEnd = &end
	updated.StabilizationCanceledAt = nil
	updated.UpdatedAt = now

	if opts.Persist != nil {
		opts.Persist(updated)
	}

	after := snapshot(updated.Accounts)
	return Plan{
		Before:            before,
		After:             after,
		MinimumSafeBuffer: buffer,
		Shortfall:         shortfall,
		Actions:           actions,
		Explanation:       buildExplanation(buffer, shortfall, actions),
		UpdatedProfile:    updated,
		Start:             now,
		End:               end,
	}
}

// Cancel turns stability mode off and stamps when. Canceling a profile that
// is not in stability mode returns it unchanged.
func Cancel(user domain.UserProfile, opts Options) domain.UserProfile {
	if !user.StabilizationMode {
		return user
	}
	nowFn := time.Now
	if opts.Now != nil {
		nowFn = opts.Now
	}
	now := nowFn()

	updated := user.Clone()
	updated.StabilizationMode = false
	updated.StabilizationCanceledAt = &now
	updated.UpdatedAt = now

	if opts.Persist != nil {
		opts.Persist(updated)
	}
	return updated
}

func snapshot(a domain.Accounts) BalanceSnapshot {
	return BalanceSnapshot{
		Checking:    a.Checking,
		Savings:     a.Savings,
		TotalLiquid: a.Liquid(),
	}
}

func isNonEssential(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range nonEssentialNames {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func buildExplanation(buffer, shortfall decimal.Decimal, actions []Action) string {
	var parts []string
	parts = append(parts,
		"**Financial Stability Mode is now active for 30 days.** Liquidity was prioritized so you have a safe buffer for the next month.")
	parts = append(parts, fmt.Sprintf(
		"Your minimum safe buffer was calculated as $%s (fixed expenses + 50%% discretionary + upcoming expenses).",
		buffer.StringFixed(0)))
	if shortfall.GreaterThan(decimal.Zero) {
		parts = append(parts, fmt.Sprintf("You were $%s short of that buffer.", shortfall.StringFixed(0)))
	}
	parts = append(parts, "**What changed:**")
	for _, a := range actions {
		parts = append(parts, fmt.Sprintf("- %s ($%s)", a.Description, a.Amount.StringFixed(0)))
	}
	parts = append(parts,
		"**Tradeoffs:** Growth from investments is paused for 30 days in favor of stability. Discretionary budgets were slightly reduced so more cash stays available. You can cancel Stability Mode anytime.")
	return strings.Join(parts, "\n\n")
}
