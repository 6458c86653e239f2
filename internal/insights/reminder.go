package insights

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
)

// checkingReserve is the checking balance a reminder never dips below.
const checkingReserve = 1500

// GoalEffect is one goal's projected movement if the reminder is followed.
type GoalEffect struct {
	GoalID           string          `json:"goalId"`
	GoalName         string          `json:"goalName"`
	ProgressIncrease decimal.Decimal `json:"progressIncrease"`
	MonthsCloser     int             `json:"monthsCloser"`
}

// ReminderImpact projects what following the reminder would do.
type ReminderImpact struct {
	AffectedGoals     []GoalEffect    `json:"affectedGoals"`
	ProjectedValue5yr decimal.Decimal `json:"projectedValue5yr"`
}

// Reminder is a deterministic nudge to invest, derived from preferences and
// the current surplus. It never executes anything.
type Reminder struct {
	ShouldRemind        bool            `json:"shouldRemind"`
	Urgency             string          `json:"urgency"` // low | medium
	RecommendedAmount   decimal.Decimal `json:"recommendedAmount"`
	Message             string          `json:"message"`
	Reasoning           string          `json:"reasoning"`
	SuggestedAccount    string          `json:"suggestedAccount"`
	ImpactIfInvested    ReminderImpact  `json:"impactIfInvested"`
	OpportunityCostNote string          `json:"opportunityCostNote,omitempty"`
	NextReminderDate    *time.Time      `json:"nextReminderDate,omitempty"`
}

var reminderIntervalDays = map[string]int{
	"weekly":    7,
	"biweekly":  14,
	"monthly":   30,
	"quarterly": 90,
	"none":      365,
}

// mediumUrgencyDays is the lateness beyond which a reminder firms up from
// low to medium.
var mediumUrgencyDays = map[string]int{
	"weekly":    14,
	"biweekly":  28,
	"monthly":   45,
	"quarterly": 120,
}

// InvestmentReminder builds the reminder for a profile at the given time.
// It returns nil when reminders are disabled (auto-invest on or frequency
// none) or when the recommendable amount falls below $50. A tight surplus
// returns a non-nil reminder that explicitly advises against investing.
func InvestmentReminder(user domain.UserProfile, now time.Time) *Reminder {
	prefs := user.Preferences.InvestmentPreferences
	if prefs == nil || prefs.AutoInvestEnabled || prefs.ReminderFrequency == "none" {
		return nil
	}

	suggestedAccount := prefs.PreferredAccount
	if suggestedAccount == "" {
		suggestedAccount = "taxable"
	}

	last := prefs.LastInvestmentDate
	daysSince := -1
	if last != nil {
		daysSince = int(now.Sub(*last).Hours() / 24)
	}

	shouldRemind := false
	urgency := "low"
	if interval, ok := reminderIntervalDays[prefs.ReminderFrequency]; ok && last != nil && daysSince >= interval {
		shouldRemind = true
		if daysSince > mediumUrgencyDays[prefs.ReminderFrequency] {
			urgency = "medium"
		}
	}
	if last == nil {
		shouldRemind = true
		urgency = "low"
	}

	surplus := user.MonthlySurplus()
	if surplus.LessThan(decimal.NewFromInt(100)) {
		return &Reminder{
			Urgency:           "low",
			RecommendedAmount: decimal.Zero,
			Message:           "Your budget is tight right now - focus on your essentials first.",
			Reasoning:         "Monthly surplus is below $100, so investing isn't recommended at this time.",
			SuggestedAccount:  suggestedAccount,
		}
	}

	target := surplus.Mul(decimal.NewFromFloat(0.3))
	if prefs.TargetMonthlyInvestment != nil && prefs.TargetMonthlyInvestment.GreaterThan(decimal.Zero) {
		target = *prefs.TargetMonthlyInvestment
	}
	recommended := decimal.Min(target,
		surplus.Mul(decimal.NewFromFloat(0.5)),
		user.Accounts.Checking.Sub(decimal.NewFromInt(checkingReserve)))
	if recommended.LessThan(decimal.NewFromInt(50)) {
		return nil
	}
	recommended = recommended.Round(0)

	var affected []GoalEffect
	for _, g := range user.Goals {
		if g.TimeHorizon != domain.HorizonLong && g.TimeHorizon != domain.HorizonMedium {
			continue
		}
		if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		progress := recommended.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(1)
		if progress.LessThanOrEqual(decimal.NewFromFloat(0.1)) {
			continue
		}
		monthsCloser := 0
		monthlyNeeded := g.TargetAmount.Sub(g.CurrentAmount).Div(decimal.NewFromInt(12))
		if monthlyNeeded.GreaterThan(decimal.Zero) {
			monthsCloser = int(recommended.Div(monthlyNeeded).Round(0).IntPart())
			if monthsCloser < 0 {
				monthsCloser = 0
			}
		}
		affected = append(affected, GoalEffect{
			GoalID:           g.ID,
			GoalName:         g.Name,
			ProgressIncrease: progress,
			MonthsCloser:     monthsCloser,
		})
	}

	// Annual compounding at the historical average; a round number is plenty
	// for a nudge.
	projected5yr := recommended.Mul(decimal.NewFromFloat(1.07).Pow(decimal.NewFromInt(5))).Round(0)

	var message string
	switch {
	case last == nil:
		message = fmt.Sprintf("When you're ready, investing $%s could be a good start for your goals.", recommended.String())
	case urgency == "medium":
		message = fmt.Sprintf("It's been a while since your last investment. When convenient, $%s could help with your goals.", recommended.String())
	default:
		message = fmt.Sprintf("Friendly reminder: $%s is available to invest if you'd like.", recommended.String())
	}

	reasoning := fmt.Sprintf("Based on your %s reminder preference and available surplus.", prefs.ReminderFrequency)
	if len(affected) > 0 {
		reasoning = fmt.Sprintf("Based on your %s reminder preference. This could move your %q goal %s%% closer.",
			prefs.ReminderFrequency, affected[0].GoalName, affected[0].ProgressIncrease.StringFixed(1))
	}

	next := now.AddDate(0, 0, reminderIntervalDays[prefs.ReminderFrequency])

	reminder := &Reminder{
		ShouldRemind:      shouldRemind,
		Urgency:           urgency,
		RecommendedAmount: recommended,
		Message:           message,
		Reasoning:         reasoning,
		SuggestedAccount:  suggestedAccount,
		ImpactIfInvested: ReminderImpact{
			AffectedGoals:     affected,
			ProjectedValue5yr: projected5yr,
		},
		NextReminderDate: &next,
	}
	if projected5yr.GreaterThan(recommended.Mul(decimal.NewFromFloat(1.2))) {
		reminder.OpportunityCostNote = fmt.Sprintf(
			"Fun fact: $%s invested today could grow to ~$%s in 5 years (based on historical averages).",
			recommended.String(), projected5yr.String())
	}
	return reminder
}
