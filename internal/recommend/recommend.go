// Package recommend turns a profile into a short list of concrete candidate
// actions: fund the emergency goal first, invest toward long-horizon goals,
// save toward medium-horizon deadlines, or build a general buffer. The output
// is deterministic and sized from surplus and goal gaps; it feeds directly
// into the simulation engine's comparison mode.
package recommend

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/projection"
)

// maxRecommendations caps the list; more than five stops being advice.
const maxRecommendations = 5

// GoalEffect summarizes how a recommendation moves its linked goal.
type GoalEffect struct {
	GoalID           string          `json:"goalId"`
	GoalName         string          `json:"goalName"`
	MonthsSaved      int             `json:"monthsSaved"`
	ProgressIncrease decimal.Decimal `json:"progressIncrease"`
}

// Impact is the qualitative summary attached to a recommendation.
type Impact struct {
	LiquidityImpact string `json:"liquidityImpact"`
	RiskImpact      string `json:"riskImpact"`
	TimelineBenefit string `json:"timelineBenefit"`
}

// Recommendation is one candidate action with its rationale.
type Recommendation struct {
	Action           domain.FinancialAction `json:"action"`
	TimeHorizonYears int                    `json:"timeHorizonYears,omitempty"`
	Priority         int                    `json:"priority"`
	Reasoning        string                 `json:"reasoning"`
	GoalImpact       *GoalEffect            `json:"goalImpact,omitempty"`
	EstimatedImpact  Impact                 `json:"estimatedImpact"`
}

// Generate builds up to five recommendations ordered by goal priority.
// Amounts are bounded so no single recommendation outruns the surplus or
// drains liquid reserves.
func Generate(user domain.UserProfile, now time.Time) []Recommendation {
	var recs []Recommendation
	surplus := user.MonthlySurplus()
	liquid := user.Accounts.Liquid()

	if emergency := findEmergencyGoal(user); emergency != nil {
		if rec := emergencyRecommendation(*emergency, surplus, liquid); rec != nil {
			recs = append(recs, *rec)
		}
	}

	for _, goal := range user.Goals {
		if goal.TimeHorizon != domain.HorizonLong || isEmergencyName(goal.Name) {
			continue
		}
		if rec := longTermRecommendation(goal, user.Preferences.RiskTolerance, surplus, now); rec != nil {
			recs = append(recs, *rec)
		}
	}

	for _, goal := range user.Goals {
		if goal.TimeHorizon != domain.HorizonMedium {
			continue
		}
		if rec := mediumTermRecommendation(goal, surplus, now); rec != nil {
			recs = append(recs, *rec)
		}
	}

	if len(recs) == 0 && surplus.GreaterThan(decimal.NewFromInt(200)) {
		amount := decimal.Min(surplus.Mul(decimal.NewFromFloat(0.3)), decimal.NewFromInt(1000)).Round(0)
		recs = append(recs, Recommendation{
			Action:    domain.FinancialAction{Type: domain.ActionSave, Amount: amount},
			Priority:  3,
			Reasoning: "Build general savings buffer. Having extra savings provides flexibility and financial security.",
			EstimatedImpact: Impact{
				LiquidityImpact: "Increases financial cushion",
				RiskImpact:      "Very low risk",
				TimelineBenefit: "Improves overall financial health",
			},
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func emergencyRecommendation(goal domain.FinancialGoal, surplus, liquid decimal.Decimal) *Recommendation {
	gap := goal.Gap()
	if gap.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	amount := decimal.Min(
		decimal.Max(decimal.NewFromInt(500), gap.Mul(decimal.NewFromFloat(0.1))),
		surplus.Mul(decimal.NewFromFloat(0.5)),
		liquid.Mul(decimal.NewFromFloat(0.3)))
	if amount.LessThan(decimal.NewFromInt(100)) {
		return nil
	}
	amount = amount.Round(0)
	years := yearsToClose(gap, amount)

	return &Recommendation{
		Action: domain.FinancialAction{
			Type:   domain.ActionSave,
			Amount: amount,
			GoalID: goal.ID,
		},
		Priority: goal.Priority,
		Reasoning: fmt.Sprintf(
			"Build emergency fund to reach %s target. This provides financial security and aligns with your highest priority goal.",
			goal.Name),
		GoalImpact: &GoalEffect{
			GoalID:           goal.ID,
			GoalName:         goal.Name,
			MonthsSaved:      maxInt(1, years),
			ProgressIncrease: progressIncrease(amount, goal.TargetAmount),
		},
		EstimatedImpact: Impact{
			LiquidityImpact: "Increases savings buffer",
			RiskImpact:      "Reduces financial risk",
			TimelineBenefit: fmt.Sprintf("Moves you %d months closer to goal", years),
		},
	}
}

func longTermRecommendation(goal domain.FinancialGoal, risk domain.RiskTolerance, surplus decimal.Decimal, now time.Time) *Recommendation {
	gap := goal.Gap()
	if gap.LessThanOrEqual(decimal.Zero) || surplus.LessThanOrEqual(decimal.NewFromInt(500)) {
		return nil
	}
	amount := decimal.Min(
		decimal.Max(decimal.NewFromInt(500), surplus.Mul(decimal.NewFromFloat(0.3))),
		gap.Mul(decimal.NewFromFloat(0.05)))
	if amount.LessThan(decimal.NewFromInt(100)) {
		return nil
	}
	amount = amount.Round(0)

	// Conservative and aggressive investors get the taxable slot; moderate
	// gets the Roth for its tax shelter.
	account := "taxable"
	if risk == domain.RiskModerate {
		account = "rothIRA"
	}
	horizon := maxInt(5, projection.MonthsBetween(now, goal.Deadline)/12)
	years := yearsToClose(gap, amount)

	return &Recommendation{
		Action: domain.FinancialAction{
			Type:            domain.ActionInvest,
			Amount:          amount,
			TargetAccountID: account,
			GoalID:          goal.ID,
		},
		TimeHorizonYears: horizon,
		Priority:         goal.Priority,
		Reasoning: fmt.Sprintf(
			"Invest for %s. Long-term investments can help you reach this goal faster through compound growth, especially with your %s risk tolerance.",
			goal.Name, risk),
		GoalImpact: &GoalEffect{
			GoalID:           goal.ID,
			GoalName:         goal.Name,
			MonthsSaved:      maxInt(1, years),
			ProgressIncrease: progressIncrease(amount, goal.TargetAmount),
		},
		EstimatedImpact: Impact{
			LiquidityImpact: "Reduces liquid cash but builds long-term wealth",
			RiskImpact:      fmt.Sprintf("Moderate risk based on %s tolerance", risk),
			TimelineBenefit: fmt.Sprintf("Potential to reach goal %d months earlier with growth", years),
		},
	}
}

func mediumTermRecommendation(goal domain.FinancialGoal, surplus decimal.Decimal, now time.Time) *Recommendation {
	gap := goal.Gap()
	monthsRemaining := projection.MonthsBetween(now, goal.Deadline)
	if gap.LessThanOrEqual(decimal.Zero) || monthsRemaining <= 0 || surplus.LessThanOrEqual(decimal.NewFromInt(300)) {
		return nil
	}
	monthlyNeeded := gap.Div(decimal.NewFromInt(int64(monthsRemaining)))
	amount := decimal.Min(
		decimal.Max(decimal.NewFromInt(300), monthlyNeeded.Mul(decimal.NewFromFloat(1.2))),
		surplus.Mul(decimal.NewFromFloat(0.4)))
	if amount.LessThan(decimal.NewFromInt(100)) {
		return nil
	}
	amount = amount.Round(0)

	return &Recommendation{
		Action: domain.FinancialAction{
			Type:   domain.ActionSave,
			Amount: amount,
			GoalID: goal.ID,
		},
		Priority: goal.Priority,
		Reasoning: fmt.Sprintf(
			"Save for %s. With %d months until deadline, this monthly amount will help you stay on track.",
			goal.Name, monthsRemaining),
		GoalImpact: &GoalEffect{
			GoalID:           goal.ID,
			GoalName:         goal.Name,
			ProgressIncrease: progressIncrease(amount, goal.TargetAmount),
		},
		EstimatedImpact: Impact{
			LiquidityImpact: "Increases savings",
			RiskImpact:      "Low risk, guaranteed growth",
			TimelineBenefit: fmt.Sprintf("Keeps you on track for %s deadline", goal.Name),
		},
	}
}

// findEmergencyGoal prefers a goal named for emergencies, falling back to the
// first short-horizon goal.
func findEmergencyGoal(user domain.UserProfile) *domain.FinancialGoal {
	for i := range user.Goals {
		if isEmergencyName(user.Goals[i].Name) || user.Goals[i].TimeHorizon == domain.HorizonShort {
			return &user.Goals[i]
		}
	}
	return nil
}

func isEmergencyName(name string) bool {
	return strings.Contains(strings.ToLower(name), "emergency")
}

func progressIncrease(amount, target decimal.Decimal) decimal.Decimal {
	if target.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return amount.Div(target).Mul(decimal.NewFromInt(100))
}

// yearsToClose estimates how many years of this contribution close the gap.
func yearsToClose(gap, amount decimal.Decimal) int {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return int(gap.Div(amount).Div(decimal.NewFromInt(12)).Floor().IntPart())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
