package feasibility

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
)

// ErrNoGoals is returned when a profile has nothing to prioritize.
var ErrNoGoals = errors.New("no goals to prioritize")

const (
	// emergencyLiquidityMin is the checking floor below which no reallocation
	// is ever suggested, independent of user guardrails.
	emergencyLiquidityMin = 1000
	// minReallocation is the smallest transfer worth recommending.
	minReallocation = 50
)

// nearTieWindow treats scores within this distance of the top as equivalent,
// so an already-chosen priority goal is not churned by rounding noise.
var nearTieWindow = decimal.NewFromFloat(0.05)

// Reallocation is a recommended transfer toward the priority goal. It is
// advice only; nothing moves until the user applies it.
type Reallocation struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// PriorityGoal summarizes the selected goal.
type PriorityGoal struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	FeasibilityScore decimal.Decimal `json:"feasibilityScore"`
	Reason           string          `json:"reason"`
}

// Decision is the outcome of prioritizing: the chosen goal, the full ranking,
// any safe reallocations, a human-readable explanation, and the updated
// profile with the priority recorded.
type Decision struct {
	PriorityGoal         PriorityGoal       `json:"priorityGoal"`
	GoalRankings         []GoalScore        `json:"goalRankings"`
	CapitalReallocations []Reallocation     `json:"capitalReallocations"`
	Explanation          string             `json:"explanation"`
	UpdatedProfile       domain.UserProfile `json:"updatedProfile"`
}

// Options tunes PrioritizeMostRealisticGoal.
type Options struct {
	// Now substitutes the clock for deterministic runs. Nil means time.Now.
	Now func() time.Time
	// Persist, when set, receives the updated profile before the decision is
	// returned.
	Persist func(domain.UserProfile)
}

// PrioritizeMostRealisticGoal ranks the profile's goals, picks the most
// feasible one (preferring the incumbent priority on a near tie), computes
// guardrail-safe reallocation advice, and returns an updated profile with the
// choice recorded. The input profile is not mutated.
func PrioritizeMostRealisticGoal(user domain.UserProfile, opts Options) (Decision, error) {
	if len(user.Goals) == 0 {
		return Decision{}, ErrNoGoals
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	ranking := RankGoalsAt(user, now())
	top := ranking.Rankings[0]

	var nearTies []GoalScore
	for _, r := range ranking.Rankings {
		if top.Score.Sub(r.Score).Abs().LessThan(nearTieWindow) {
			nearTies = append(nearTies, r)
		}
	}
	selected := top
	if len(nearTies) > 1 {
		for _, r := range nearTies {
			if r.GoalID == user.PriorityGoalID {
				selected = r
				break
			}
		}
		if selected.GoalID == top.GoalID {
			selected = nearTies[0]
		}
	}

	reallocations := computeReallocations(user, selected.GoalID, ranking.Surplus)
	totalRealloc := decimal.Zero
	for _, r := range reallocations {
		totalRealloc = totalRealloc.Add(r.Amount)
	}

	violations := liquidityViolations(user)
	floor := decimal.NewFromInt(emergencyLiquidityMin)
	liquidityOK := user.Accounts.Checking.GreaterThanOrEqual(floor)
	reallocOK := totalRealloc.LessThanOrEqual(ranking.Surplus) &&
		totalRealloc.LessThanOrEqual(user.Accounts.Checking.Sub(floor))
	if len(violations) > 0 || !liquidityOK || !reallocOK {
		reallocations = nil
	}

	updated := user.Clone()
	updated.PriorityGoalID = selected.GoalID
	for i := range updated.Goals {
		updated.Goals[i].IsPriority = updated.Goals[i].ID == selected.GoalID
	}
	updated.UpdatedAt = now()

	if opts.Persist != nil {
		opts.Persist(updated)
	}

	reason := fmt.Sprintf("Closest to completion with manageable monthly contribution ($%s/mo)",
		selected.RequiredMonthlyContribution.StringFixed(0))
	if selected.Bottleneck != "" {
		reason = fmt.Sprintf("Highest feasibility (%s). %s", selected.Score.String(), selected.Bottleneck)
	}

	return Decision{
		PriorityGoal: PriorityGoal{
			ID:               selected.GoalID,
			Name:             selected.GoalName,
			FeasibilityScore: selected.Score,
			Reason:           reason,
		},
		GoalRankings:         ranking.Rankings,
		CapitalReallocations: reallocations,
		Explanation:          buildExplanation(selected, ranking.Rankings, reallocations, violations),
		UpdatedProfile:       updated,
	}, nil
}

// computeReallocations suggests one transfer toward the priority goal, sized
// between half the surplus and a tenth of the remaining gap, floored at the
// minimum worthwhile amount and never exceeding the surplus.
func computeReallocations(user domain.UserProfile, priorityGoalID string, surplus decimal.Decimal) []Reallocation {
	if surplus.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	goal := user.GoalByID(priorityGoalID)
	if goal == nil {
		return nil
	}

	gap := goal.Gap()
	amount := minDecimal(
		maxDecimal(decimal.NewFromInt(minReallocation),
			minDecimal(surplus.Mul(decimal.NewFromFloat(0.5)), gap.Mul(decimal.NewFromFloat(0.1)))),
		surplus)
	if amount.LessThan(decimal.NewFromInt(minReallocation)) {
		return nil
	}
	return []Reallocation{{
		From:   "general_savings",
		To:     priorityGoalID,
		Amount: amount.Round(2),
		Reason: fmt.Sprintf("Increase progress toward priority goal %q", goal.Name),
	}}
}

// liquidityViolations checks the user's min_balance guardrails and the
// emergency checking floor against current balances.
func liquidityViolations(user domain.UserProfile) []string {
	var violations []string
	for _, g := range user.Preferences.Guardrails {
		if g.Type != domain.GuardrailMinBalance || g.AccountID == "" || g.Threshold == nil {
			continue
		}
		balance, ok := user.Accounts.BalanceFor(g.AccountID)
		if ok && balance.LessThan(*g.Threshold) {
			violations = append(violations, fmt.Sprintf("%s (would be $%s)", g.Rule, balance.StringFixed(0)))
		}
	}
	if user.Accounts.Checking.LessThan(decimal.NewFromInt(emergencyLiquidityMin)) {
		violations = append(violations, fmt.Sprintf("Emergency liquidity: checking would be $%s (min $%d)",
			user.Accounts.Checking.StringFixed(0), emergencyLiquidityMin))
	}
	return violations
}

func buildExplanation(priority GoalScore, rankings []GoalScore, reallocations []Reallocation, violations []string) string {
	var lines []string
	lines = append(lines, fmt.Sprintf(
		"**Why %q was chosen:** %s has the highest feasibility score (%s) right now: closest to completion with a manageable required monthly contribution ($%s/mo) and %d months left.",
		priority.GoalName, priority.GoalName, priority.Score.String(),
		priority.RequiredMonthlyContribution.StringFixed(0), priority.MonthsRemaining))

	var others []string
	for _, r := range rankings {
		if r.GoalID == priority.GoalID {
			continue
		}
		line := fmt.Sprintf("%s (score %s)", r.GoalName, r.Score.String())
		if r.Bottleneck != "" {
			line += ": " + r.Bottleneck
		}
		others = append(others, line)
	}
	if len(others) > 0 {
		lines = append(lines, "**Why others were deprioritized:** "+strings.Join(others, ". "))
	}

	if len(reallocations) > 0 {
		var moves []string
		for _, r := range reallocations {
			moves = append(moves, fmt.Sprintf("$%s from %s to %s", r.Amount.String(), r.From, r.To))
		}
		lines = append(lines, "**Capital reallocations:** "+strings.Join(moves, "; ")+
			". These are recommendations; apply them when ready.")
	}
	if len(violations) > 0 {
		lines = append(lines, "**Guardrails:** No automatic reallocations were applied because: "+
			strings.Join(violations, "; ")+".")
	}

	lines = append(lines, fmt.Sprintf(
		"**What changed:** Your priority goal is now set to %q. Future suggestions will favor this goal until you change it.",
		priority.GoalName))
	return strings.Join(lines, "\n\n")
}
