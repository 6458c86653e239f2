// Package feasibility scores goals by how realistic they are to pursue right
// now and selects a priority goal from the ranking. Scoring is a weighted
// blend of six components, each normalized to [0, 1].
package feasibility

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/projection"
)

const (
	// minMonths floors the remaining horizon so required-monthly math never
	// divides by zero on past-due deadlines.
	minMonths = 1
	// maxMonthsForPressure caps the horizon used for required-monthly so very
	// distant deadlines still demand a visible contribution.
	maxMonthsForPressure = 120
)

// Component weights. They sum to 1; affordability and current progress
// dominate.
var (
	weightProgress     = decimal.NewFromFloat(0.25)
	weightTimePressure = decimal.NewFromFloat(0.15)
	weightAfford       = decimal.NewFromFloat(0.25)
	weightHeadroom     = decimal.NewFromFloat(0.10)
	weightLiquidity    = decimal.NewFromFloat(0.05)
	weightRisk         = decimal.NewFromFloat(0.10)
)

var (
	zero    = decimal.Zero
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ScoreComponents exposes the six normalized inputs behind a score so the
// ranking can be explained, not just asserted.
type ScoreComponents struct {
	ProgressRatio             decimal.Decimal `json:"progressRatio"`
	TimePressure              decimal.Decimal `json:"timePressure"`
	ContributionAffordability decimal.Decimal `json:"contributionAffordability"`
	SpendingHeadroom          decimal.Decimal `json:"spendingHeadroom"`
	LiquidityAlignment        decimal.Decimal `json:"liquidityAlignment"`
	RiskAlignment             decimal.Decimal `json:"riskAlignment"`
}

// GoalScore is one goal's feasibility verdict.
type GoalScore struct {
	GoalID                      string          `json:"goalId"`
	GoalName                    string          `json:"goalName"`
	Score                       decimal.Decimal `json:"score"`
	Components                  ScoreComponents `json:"components"`
	RequiredMonthlyContribution decimal.Decimal `json:"requiredMonthlyContribution"`
	MonthsRemaining             int             `json:"monthsRemaining"`
	Bottleneck                  string          `json:"bottleneck,omitempty"`
}

// Ranking is the full ordered result plus the shared inputs every goal was
// scored against.
type Ranking struct {
	Rankings    []GoalScore     `json:"rankings"`
	Surplus     decimal.Decimal `json:"surplus"`
	TotalLiquid decimal.Decimal `json:"totalLiquid"`
}

// RankGoals scores every goal against the current clock.
func RankGoals(user domain.UserProfile) Ranking {
	return RankGoalsAt(user, time.Now())
}

// RankGoalsAt scores every goal and sorts by descending score. Equal scores
// keep the profile's goal order, so the ranking is deterministic for a given
// profile and clock.
func RankGoalsAt(user domain.UserProfile, now time.Time) Ranking {
	surplus := clampedSurplus(user)
	liquid := user.Accounts.Liquid()
	util := spendingUtilization(user)

	scores := make([]GoalScore, 0, len(user.Goals))
	for _, g := range user.Goals {
		scores = append(scores, scoreGoal(g, user, surplus, liquid, util, now))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score.GreaterThan(scores[j].Score)
	})

	return Ranking{
		Rankings:    scores,
		Surplus:     surplus.Round(2),
		TotalLiquid: liquid,
	}
}

func scoreGoal(goal domain.FinancialGoal, user domain.UserProfile, surplus, liquid, spendingUtil decimal.Decimal, now time.Time) GoalScore {
	gap := goal.Gap()

	monthsRemaining := projection.MonthsBetween(now, goal.Deadline)
	if monthsRemaining < minMonths {
		monthsRemaining = minMonths
	}

	requiredMonthly := zero
	if gap.GreaterThan(zero) {
		pressureMonths := monthsRemaining
		if pressureMonths > maxMonthsForPressure {
			pressureMonths = maxMonthsForPressure
		}
		requiredMonthly = gap.Div(decimal.NewFromInt(int64(pressureMonths)))
	}

	progressRatio := one
	if goal.TargetAmount.GreaterThan(zero) {
		progressRatio = minDecimal(one, goal.CurrentAmount.Div(goal.TargetAmount))
	}

	var timePressure decimal.Decimal
	switch {
	case monthsRemaining >= 24:
		timePressure = one
	case monthsRemaining >= 12:
		timePressure = decimal.NewFromFloat(0.8)
	case monthsRemaining >= 6:
		timePressure = decimal.NewFromFloat(0.6)
	default:
		timePressure = decimal.NewFromFloat(0.4)
	}

	affordability := zero
	if surplus.GreaterThan(zero) {
		denom := requiredMonthly
		if denom.LessThanOrEqual(zero) {
			// Funded goals need nothing per month. The $1 stand-in keeps the
			// ratio defined, so a sub-dollar surplus scores below 1 even here.
			denom = one
		}
		affordability = minDecimal(one, surplus.Div(denom))
	}

	headroom := maxDecimal(zero, one.Sub(spendingUtil))

	liquidityAlignment := one
	if requiredMonthly.GreaterThan(zero) {
		// A tenth of liquid reserves is the most a month should sensibly draw.
		sensibleMonthly := liquid.Mul(decimal.NewFromFloat(0.1))
		liquidityAlignment = minDecimal(one, sensibleMonthly.Div(requiredMonthly))
	}

	riskAlignment := riskAlignmentFor(goal, user.Preferences)

	score := progressRatio.Mul(weightProgress).
		Add(timePressure.Mul(weightTimePressure)).
		Add(affordability.Mul(weightAfford)).
		Add(headroom.Mul(weightHeadroom)).
		Add(liquidityAlignment.Mul(weightLiquidity)).
		Add(riskAlignment.Mul(weightRisk))
	score = maxDecimal(zero, minDecimal(one, score)).Round(2)

	return GoalScore{
		GoalID: goal.ID, GoalName: goal.Name,
		Score: score,
		Components: ScoreComponents{
			ProgressRatio:             progressRatio,
			TimePressure:              timePressure,
			ContributionAffordability: affordability,
			SpendingHeadroom:          headroom,
			LiquidityAlignment:        liquidityAlignment,
			RiskAlignment:             riskAlignment,
		},
		RequiredMonthlyContribution: requiredMonthly.Round(2),
		MonthsRemaining:             monthsRemaining,
		Bottleneck:                  bottleneckFor(gap, requiredMonthly, affordability, progressRatio, liquidityAlignment, monthsRemaining),
	}
}

// bottleneckFor reports the single most pressing limiter, checked in priority
// order: affordability, distance from target, short horizon, liquidity.
func bottleneckFor(gap, requiredMonthly, affordability, progressRatio, liquidityAlignment decimal.Decimal, monthsRemaining int) string {
	half := decimal.NewFromFloat(0.5)
	switch {
	case affordability.LessThan(half) && requiredMonthly.GreaterThan(zero):
		return "Required monthly ($" + requiredMonthly.Round(0).String() + ") exceeds affordable surplus"
	case progressRatio.LessThan(decimal.NewFromFloat(0.2)) && gap.GreaterThan(zero):
		return "Far from target ($" + gap.Round(0).String() + " to go)"
	case monthsRemaining < 6 && gap.GreaterThan(zero):
		return "Short time horizon (" + decimal.NewFromInt(int64(monthsRemaining)).String() + " months left)"
	case liquidityAlignment.LessThan(half):
		return "Liquidity constraints limit allocation"
	}
	return ""
}

func riskAlignmentFor(goal domain.FinancialGoal, prefs domain.UserPreferences) decimal.Decimal {
	risk := prefs.RiskTolerance
	if risk == "" {
		risk = domain.RiskModerate
	}
	liquidityPref := prefs.LiquidityPreference
	if liquidityPref == "" {
		liquidityPref = domain.LiquidityMedium
	}

	alignment := decimal.NewFromFloat(0.7)
	switch goal.TimeHorizon {
	case domain.HorizonShort:
		switch risk {
		case domain.RiskConservative:
			alignment = one
		case domain.RiskModerate:
			alignment = decimal.NewFromFloat(0.85)
		}
		if liquidityPref == domain.LiquidityHigh {
			alignment = minDecimal(one, alignment.Add(decimal.NewFromFloat(0.1)))
		}
	case domain.HorizonLong:
		switch risk {
		case domain.RiskAggressive:
			alignment = one
		case domain.RiskModerate:
			alignment = decimal.NewFromFloat(0.85)
		}
	}
	return alignment
}

// clampedSurplus is income minus fixed expenses and budget allocations,
// floored at zero. Budgets, not observed spend: the question is what the plan
// leaves over, not what this month happened to.
func clampedSurplus(user domain.UserProfile) decimal.Decimal {
	return maxDecimal(zero, user.MonthlySurplus())
}

// spendingUtilization is total spent over total budgeted across categories,
// capped at 1.5. Categories named "income" are bookkeeping, not spending.
func spendingUtilization(user domain.UserProfile) decimal.Decimal {
	totalBudget := zero
	totalSpent := zero
	for _, c := range user.SpendingCategories {
		if c.MonthlyBudget.GreaterThan(zero) && !strings.EqualFold(c.Name, "income") {
			totalBudget = totalBudget.Add(c.MonthlyBudget)
			totalSpent = totalSpent.Add(c.CurrentSpent)
		}
	}
	if totalBudget.LessThanOrEqual(zero) {
		return zero
	}
	return minDecimal(decimal.NewFromFloat(1.5), totalSpent.Div(totalBudget))
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
