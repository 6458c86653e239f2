package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pfsim/pfsim/internal/domain"
)

// Late enough in the month that daily-rate projections settle down.
var analysisNow = time.Date(2026, 3, 25, 12, 0, 0, 0, time.UTC)

func insightsProfile() domain.UserProfile {
	return domain.UserProfile{
		ID:            "user-1",
		Name:          "Jordan",
		MonthlyIncome: decimal.NewFromInt(6000),
		Accounts: domain.Accounts{
			Checking: decimal.NewFromInt(2500),
			Savings:  decimal.NewFromInt(9000),
			Investments: domain.InvestmentAccounts{
				Taxable: domain.InvestmentAccount{Balance: decimal.NewFromInt(10000)},
			},
		},
		FixedExpenses: []domain.FixedExpense{
			{ID: "rent", Name: "Rent", Amount: decimal.NewFromInt(1500), Frequency: "monthly"},
			{ID: "ins", Name: "Insurance", Amount: decimal.NewFromInt(1200), Frequency: "annual"},
		},
		SpendingCategories: []domain.SpendingCategory{
			{ID: "groceries", Name: "Groceries", MonthlyBudget: decimal.NewFromInt(500), CurrentSpent: decimal.NewFromInt(250)},
			{ID: "dining", Name: "Dining Out", MonthlyBudget: decimal.NewFromInt(200), CurrentSpent: decimal.NewFromInt(190)},
		},
		Goals: []domain.FinancialGoal{
			{
				ID: "retire", Name: "Retirement",
				TargetAmount:  decimal.NewFromInt(500000),
				CurrentAmount: decimal.NewFromInt(10000),
				Deadline:      analysisNow.AddDate(25, 0, 0),
				Priority:      2,
				TimeHorizon:   domain.HorizonLong,
			},
		},
		Preferences: domain.UserPreferences{
			RiskTolerance:       domain.RiskModerate,
			LiquidityPreference: domain.LiquidityMedium,
		},
	}
}

func TestAnalyzeBudgetCategories(t *testing.T) {
	analysis := AnalyzeBudget(insightsProfile(), analysisNow)

	if assert.Len(t, analysis.Categories, 2) {
		groceries := analysis.Categories[0]
		assert.Equal(t, domain.BudgetGood, groceries.Status, "250 of 500 is 50%%: good")
		assert.True(t, groceries.PercentUsed.Equal(decimal.NewFromInt(50)))

		dining := analysis.Categories[1]
		assert.Equal(t, domain.BudgetWarning, dining.Status, "190 of 200 is 95%%: warning")
	}
	assert.True(t, analysis.TotalBudget.Equal(decimal.NewFromInt(700)))
	assert.True(t, analysis.TotalSpent.Equal(decimal.NewFromInt(440)))
	assert.True(t, analysis.Remaining.Equal(decimal.NewFromInt(260)))
	assert.Equal(t, 6, analysis.DaysLeftInMonth, "March 25 leaves 6 days")
}

func TestAnalyzeBudgetOverallStatus(t *testing.T) {
	user := insightsProfile()
	analysis := AnalyzeBudget(user, analysisNow)
	// A warning category without overruns grades good, not healthy.
	assert.Equal(t, BudgetOK, analysis.OverallStatus)

	user.SpendingCategories[1].CurrentSpent = decimal.NewFromInt(250)
	analysis = AnalyzeBudget(user, analysisNow)
	assert.Equal(t, BudgetNeedsAttention, analysis.OverallStatus, "an over-budget category needs attention")
}

func TestAnalyzeBudgetNoBudgetCategory(t *testing.T) {
	user := insightsProfile()
	user.SpendingCategories = append(user.SpendingCategories, domain.SpendingCategory{
		ID: "misc", Name: "Miscellaneous", CurrentSpent: decimal.NewFromInt(40),
	})
	analysis := AnalyzeBudget(user, analysisNow)
	misc := analysis.Categories[2]
	assert.Equal(t, domain.BudgetOver, misc.Status, "spend without a budget reads as fully used")
}

func TestSummaryMessageWarnsByName(t *testing.T) {
	analysis := AnalyzeBudget(insightsProfile(), analysisNow)
	msg := analysis.SummaryMessage()
	assert.True(t, strings.Contains(msg, "Dining Out"), "warning category named in summary: %q", msg)
}

func TestAnalyzeUpcomingExpenses(t *testing.T) {
	user := insightsProfile()
	user.UpcomingExpenses = []domain.UpcomingExpense{
		{ID: "e1", Name: "Electric bill", Amount: decimal.NewFromInt(120), DueDate: analysisNow.AddDate(0, 0, 2), Status: "pending"},
		{ID: "e2", Name: "Car payment", Amount: decimal.NewFromInt(400), DueDate: analysisNow.AddDate(0, 0, 6), Status: "pending", CategoryID: "groceries"},
		{ID: "e3", Name: "Tuition", Amount: decimal.NewFromInt(900), DueDate: analysisNow.AddDate(0, 0, 20), Status: "pending"},
		{ID: "e4", Name: "Done", Amount: decimal.NewFromInt(50), DueDate: analysisNow.AddDate(0, 0, 5), Status: "paid"},
		{ID: "e5", Name: "Far away", Amount: decimal.NewFromInt(5000), DueDate: analysisNow.AddDate(0, 2, 0), Status: "pending"},
	}

	analysis := AnalyzeUpcomingExpenses(user, analysisNow)
	assert.True(t, analysis.HasUpcoming)
	if assert.Len(t, analysis.Expenses, 3, "paid and far-future expenses are excluded") {
		assert.Equal(t, "e1", analysis.Expenses[0].ID, "soonest first")
		assert.Equal(t, UrgencyImmediate, analysis.Expenses[0].Urgency)
		assert.Equal(t, UrgencySoon, analysis.Expenses[1].Urgency)
		assert.Equal(t, UrgencyUpcoming, analysis.Expenses[2].Urgency)
		assert.Equal(t, "Groceries", analysis.Expenses[1].CategoryName)
	}
	assert.True(t, analysis.TotalDueNext30Days.Equal(decimal.NewFromInt(1420)))
	assert.True(t, analysis.TotalDueNext7Days.Equal(decimal.NewFromInt(520)))
	assert.Equal(t, 1, analysis.ImmediateAttentionCount)
	assert.True(t, analysis.CanAfford, "checking 2500 covers 1420")
}

func TestAnalyzeUpcomingExpensesShortfall(t *testing.T) {
	user := insightsProfile()
	user.Accounts.Checking = decimal.NewFromInt(300)
	user.UpcomingExpenses = []domain.UpcomingExpense{
		{ID: "e1", Name: "Rent", Amount: decimal.NewFromInt(1500), DueDate: analysisNow.AddDate(0, 0, 10), Status: "pending"},
	}

	analysis := AnalyzeUpcomingExpenses(user, analysisNow)
	assert.False(t, analysis.CanAfford)
	assert.True(t, analysis.Shortfall.Equal(decimal.NewFromInt(1200)))
	assert.True(t, strings.Contains(analysis.Summary, "additional"), "summary mentions the shortfall: %q", analysis.Summary)
}

func TestRiskScoreComposite(t *testing.T) {
	user := insightsProfile()
	score := RiskScore(user)

	// Taxable slot with no explicit allocation defaults to 100% stocks.
	assert.Equal(t, 100, score.Breakdown.InvestmentVolatility)
	assert.GreaterOrEqual(t, score.Overall, 0)
	assert.LessOrEqual(t, score.Overall, 100)

	// Liquid 11500 against 2300/mo is 5 months: buffer component is low.
	assert.Less(t, score.Breakdown.EmergencyBuffer, 50)
}

func TestRiskScoreSaferAllocation(t *testing.T) {
	user := insightsProfile()
	risky := RiskScore(user).Overall

	safe := domain.AssetAllocation{Stocks: decimal.NewFromInt(20), Bonds: decimal.NewFromInt(60), Cash: decimal.NewFromInt(20)}
	user.Accounts.Investments.Taxable.Allocation = &safe
	safer := RiskScore(user).Overall

	assert.Less(t, safer, risky, "lower stock share must lower the score")
}

func TestInvestmentReminderDisabled(t *testing.T) {
	user := insightsProfile()

	assert.Nil(t, InvestmentReminder(user, analysisNow), "no preferences means no reminder")

	user.Preferences.InvestmentPreferences = &domain.InvestmentPreferences{AutoInvestEnabled: true, ReminderFrequency: "monthly"}
	assert.Nil(t, InvestmentReminder(user, analysisNow), "auto-invest silences reminders")

	user.Preferences.InvestmentPreferences = &domain.InvestmentPreferences{ReminderFrequency: "none"}
	assert.Nil(t, InvestmentReminder(user, analysisNow), "frequency none silences reminders")
}

func TestInvestmentReminderTightBudget(t *testing.T) {
	user := insightsProfile()
	user.MonthlyIncome = decimal.NewFromInt(2400) // surplus under $100
	user.Preferences.InvestmentPreferences = &domain.InvestmentPreferences{ReminderFrequency: "monthly"}

	reminder := InvestmentReminder(user, analysisNow)
	if assert.NotNil(t, reminder) {
		assert.False(t, reminder.ShouldRemind)
		assert.True(t, reminder.RecommendedAmount.IsZero())
	}
}

func TestInvestmentReminderRecommends(t *testing.T) {
	user := insightsProfile()
	last := analysisNow.AddDate(0, 0, -40)
	user.Preferences.InvestmentPreferences = &domain.InvestmentPreferences{
		ReminderFrequency:  "monthly",
		LastInvestmentDate: &last,
	}

	reminder := InvestmentReminder(user, analysisNow)
	if assert.NotNil(t, reminder) {
		assert.True(t, reminder.ShouldRemind)
		// Surplus 6000-1600-700 = 3700; 30% target = 1110, capped by
		// checking-1500 = 1000.
		assert.True(t, reminder.RecommendedAmount.Equal(decimal.NewFromInt(1000)), "got %s", reminder.RecommendedAmount)
		assert.Equal(t, "taxable", reminder.SuggestedAccount)
		if assert.NotNil(t, reminder.NextReminderDate) {
			assert.Equal(t, analysisNow.AddDate(0, 0, 30), *reminder.NextReminderDate)
		}
		assert.True(t, reminder.ImpactIfInvested.ProjectedValue5yr.GreaterThan(reminder.RecommendedAmount))
	}
}
