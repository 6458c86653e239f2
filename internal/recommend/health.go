package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/projection"
)

// GoalStatus classifies a goal's trajectory against the current surplus.
type GoalStatus string

const (
	GoalCompleted GoalStatus = "completed"
	GoalOnTrack   GoalStatus = "on_track"
	GoalBehind    GoalStatus = "behind"
	GoalAtRisk    GoalStatus = "at_risk"
)

// GoalSummary is one goal's dashboard row: progress, pace, and a suggested
// next action.
type GoalSummary struct {
	GoalID              string             `json:"goalId"`
	GoalName            string             `json:"goalName"`
	TargetAmount        decimal.Decimal    `json:"targetAmount"`
	CurrentAmount       decimal.Decimal    `json:"currentAmount"`
	RemainingAmount     decimal.Decimal    `json:"remainingAmount"`
	Progress            decimal.Decimal    `json:"progress"`
	Deadline            time.Time          `json:"deadline"`
	MonthsRemaining     int                `json:"monthsRemaining"`
	TimeHorizon         domain.TimeHorizon `json:"timeHorizon"`
	Priority            int                `json:"priority"`
	Status              GoalStatus         `json:"status"`
	MonthlyNeeded       decimal.Decimal    `json:"monthlyNeeded"`
	ProjectedCompletion string             `json:"projectedCompletion"`
	SuggestedAction     *Recommendation    `json:"suggestedAction,omitempty"`
}

// GoalSummaries builds a dashboard row per goal, sorted by priority then by
// how much trouble the goal is in.
func GoalSummaries(user domain.UserProfile, now time.Time) []GoalSummary {
	surplus := user.MonthlySurplus()

	summaries := make([]GoalSummary, 0, len(user.Goals))
	for _, goal := range user.Goals {
		summaries = append(summaries, summarizeGoal(goal, user.Preferences.RiskTolerance, surplus, now))
	}

	statusOrder := map[GoalStatus]int{GoalAtRisk: 0, GoalBehind: 1, GoalOnTrack: 2, GoalCompleted: 3}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Priority != summaries[j].Priority {
			return summaries[i].Priority < summaries[j].Priority
		}
		return statusOrder[summaries[i].Status] < statusOrder[summaries[j].Status]
	})
	return summaries
}

func summarizeGoal(goal domain.FinancialGoal, risk domain.RiskTolerance, surplus decimal.Decimal, now time.Time) GoalSummary {
	remaining := goal.Gap()
	progress := goal.ProgressPercent()
	monthsRemaining := projection.MonthsBetween(now, goal.Deadline)

	monthlyNeeded := remaining
	if monthsRemaining > 0 {
		monthlyNeeded = remaining.Div(decimal.NewFromInt(int64(monthsRemaining)))
	}

	var status GoalStatus
	var completion string
	switch {
	case progress.GreaterThanOrEqual(decimal.NewFromInt(100)):
		status = GoalCompleted
		completion = "Completed!"
	case monthlyNeeded.LessThanOrEqual(surplus):
		status = GoalOnTrack
		completion = "On time"
	case monthlyNeeded.LessThanOrEqual(surplus.Mul(decimal.NewFromFloat(1.5))):
		status = GoalBehind
		completion = "On time with effort"
		if surplus.GreaterThan(decimal.Zero) {
			extra := int(remaining.Div(surplus).Ceil().IntPart()) - monthsRemaining
			if extra > 0 {
				completion = fmt.Sprintf("%d months late", extra)
			}
		}
	default:
		status = GoalAtRisk
		completion = "Significantly delayed"
		if surplus.GreaterThan(decimal.Zero) {
			delay := int(remaining.Div(surplus).Ceil().IntPart()) - monthsRemaining
			completion = fmt.Sprintf("%d months late", delay)
		}
	}

	summary := GoalSummary{
		GoalID:              goal.ID,
		GoalName:            goal.Name,
		TargetAmount:        goal.TargetAmount,
		CurrentAmount:       goal.CurrentAmount,
		RemainingAmount:     remaining.Round(2),
		Progress:            progress.Round(1),
		Deadline:            goal.Deadline,
		MonthsRemaining:     monthsRemaining,
		TimeHorizon:         goal.TimeHorizon,
		Priority:            goal.Priority,
		Status:              status,
		MonthlyNeeded:       monthlyNeeded.Round(2),
		ProjectedCompletion: completion,
	}

	if status != GoalCompleted && surplus.GreaterThan(decimal.Zero) {
		amount := decimal.Min(
			decimal.Max(decimal.NewFromInt(100), monthlyNeeded.Mul(decimal.NewFromFloat(0.8))),
			surplus.Mul(decimal.NewFromFloat(0.5))).Round(0)
		if goal.TimeHorizon == domain.HorizonLong {
			account := "rothIRA"
			if risk == domain.RiskAggressive {
				account = "taxable"
			}
			summary.SuggestedAction = &Recommendation{
				Action: domain.FinancialAction{
					Type:            domain.ActionInvest,
					Amount:          amount,
					TargetAccountID: account,
					GoalID:          goal.ID,
				},
				Reasoning: fmt.Sprintf("Invest for long-term growth to accelerate %s", goal.Name),
			}
		} else {
			summary.SuggestedAction = &Recommendation{
				Action: domain.FinancialAction{
					Type:   domain.ActionSave,
					Amount: amount,
					GoalID: goal.ID,
				},
				Reasoning: fmt.Sprintf("Save to stay on track for %s deadline", goal.Name),
			}
		}
	}
	return summary
}

// EmergencyFundStatus grades liquid reserves against monthly expenses.
type EmergencyFundStatus string

const (
	EmergencyAdequate EmergencyFundStatus = "adequate"
	EmergencyLow      EmergencyFundStatus = "low"
	EmergencyMissing  EmergencyFundStatus = "missing"
)

// OverallHealth is the one-word verdict on a profile.
type OverallHealth string

const (
	HealthExcellent      OverallHealth = "excellent"
	HealthGood           OverallHealth = "good"
	HealthFair           OverallHealth = "fair"
	HealthNeedsAttention OverallHealth = "needs_attention"
)

// GoalProgressEntry is one goal's on-track flag within a health report.
type GoalProgressEntry struct {
	GoalID   string          `json:"goalId"`
	GoalName string          `json:"goalName"`
	Progress decimal.Decimal `json:"progress"`
	OnTrack  bool            `json:"onTrack"`
}

// HealthReport is the full financial-health snapshot.
type HealthReport struct {
	OverallHealth       OverallHealth       `json:"overallHealth"`
	MonthlySurplus      decimal.Decimal     `json:"monthlySurplus"`
	EmergencyFundStatus EmergencyFundStatus `json:"emergencyFundStatus"`
	GoalProgress        []GoalProgressEntry `json:"goalProgress"`
	Recommendations     []Recommendation    `json:"recommendations"`
}

// AnalyzeHealth grades the profile: surplus, emergency coverage, goal pacing,
// and the recommendation list in one report.
func AnalyzeHealth(user domain.UserProfile, now time.Time) HealthReport {
	surplus := user.MonthlySurplus()
	months := projection.MonthsOfExpenses(user.Accounts, user.MonthlyExpenses())

	var fund EmergencyFundStatus
	switch {
	case months.GreaterThanOrEqual(decimal.NewFromInt(3)):
		fund = EmergencyAdequate
	case months.GreaterThanOrEqual(decimal.NewFromInt(1)):
		fund = EmergencyLow
	default:
		fund = EmergencyMissing
	}

	allOnTrack := true
	anyOnTrack := false
	progress := make([]GoalProgressEntry, 0, len(user.Goals))
	for _, goal := range user.Goals {
		monthsRemaining := projection.MonthsBetween(now, goal.Deadline)
		monthlyNeeded := decimal.Zero
		if monthsRemaining > 0 {
			monthlyNeeded = goal.Gap().Div(decimal.NewFromInt(int64(monthsRemaining)))
		}
		onTrack := monthlyNeeded.LessThanOrEqual(surplus.Mul(decimal.NewFromFloat(1.2)))
		if onTrack {
			anyOnTrack = true
		} else {
			allOnTrack = false
		}
		progress = append(progress, GoalProgressEntry{
			GoalID:   goal.ID,
			GoalName: goal.Name,
			Progress: goal.ProgressPercent().Round(1),
			OnTrack:  onTrack,
		})
	}

	var overall OverallHealth
	switch {
	case surplus.GreaterThan(decimal.NewFromInt(1000)) && fund == EmergencyAdequate && allOnTrack:
		overall = HealthExcellent
	case surplus.GreaterThan(decimal.NewFromInt(500)) && fund != EmergencyMissing && anyOnTrack:
		overall = HealthGood
	case surplus.GreaterThan(decimal.Zero):
		overall = HealthFair
	default:
		overall = HealthNeedsAttention
	}

	return HealthReport{
		OverallHealth:       overall,
		MonthlySurplus:      surplus.Round(2),
		EmergencyFundStatus: fund,
		GoalProgress:        progress,
		Recommendations:     Generate(user, now),
	}
}
