package feasibility

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pfsim/pfsim/internal/domain"
)

var rankNow = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func rankerProfile() domain.UserProfile {
	return domain.UserProfile{
		ID:            "user-1",
		Name:          "Jordan",
		MonthlyIncome: decimal.NewFromInt(7000),
		Accounts: domain.Accounts{
			Checking: decimal.NewFromInt(4000),
			Savings:  decimal.NewFromInt(12000),
		},
		FixedExpenses: []domain.FixedExpense{
			{ID: "rent", Name: "Rent", Amount: decimal.NewFromInt(2000), Frequency: "monthly"},
		},
		SpendingCategories: []domain.SpendingCategory{
			{ID: "groceries", Name: "Groceries", MonthlyBudget: decimal.NewFromInt(500), CurrentSpent: decimal.NewFromInt(200)},
			{ID: "dining", Name: "Dining Out", MonthlyBudget: decimal.NewFromInt(300), CurrentSpent: decimal.NewFromInt(100)},
		},
		Goals: []domain.FinancialGoal{
			{
				ID: "nearly-done", Name: "Vacation",
				TargetAmount:  decimal.NewFromInt(3000),
				CurrentAmount: decimal.NewFromInt(2700),
				Deadline:      rankNow.AddDate(0, 10, 0),
				Priority:      2,
				TimeHorizon:   domain.HorizonShort,
			},
			{
				ID: "distant", Name: "House Down Payment",
				TargetAmount:  decimal.NewFromInt(80000),
				CurrentAmount: decimal.NewFromInt(4000),
				Deadline:      rankNow.AddDate(1, 0, 0),
				Priority:      1,
				TimeHorizon:   domain.HorizonLong,
			},
		},
		Preferences: domain.UserPreferences{
			RiskTolerance:       domain.RiskModerate,
			LiquidityPreference: domain.LiquidityMedium,
		},
	}
}

func TestRankGoalsDeterministic(t *testing.T) {
	user := rankerProfile()

	first := RankGoalsAt(user, rankNow)
	second := RankGoalsAt(user, rankNow)

	assert.Equal(t, first, second, "identical input and clock must produce identical rankings")
}

func TestRankGoalsOrdersByFeasibility(t *testing.T) {
	user := rankerProfile()
	ranking := RankGoalsAt(user, rankNow)

	if assert.Len(t, ranking.Rankings, 2) {
		assert.Equal(t, "nearly-done", ranking.Rankings[0].GoalID,
			"the nearly funded goal should outrank the distant one")
		top := ranking.Rankings[0]
		assert.True(t, top.Score.GreaterThanOrEqual(ranking.Rankings[1].Score))
		assert.True(t, top.Score.LessThanOrEqual(decimal.NewFromInt(1)), "scores are clamped to [0,1]")

		// The distant goal's required monthly far exceeds the surplus.
		bottom := ranking.Rankings[1]
		assert.NotEmpty(t, bottom.Bottleneck)
	}
}

func TestRankGoalsSurplusClamped(t *testing.T) {
	user := rankerProfile()
	user.MonthlyIncome = decimal.NewFromInt(1000) // below fixed + budgets

	ranking := RankGoalsAt(user, rankNow)
	assert.True(t, ranking.Surplus.IsZero(), "negative surplus reads as zero, got %s", ranking.Surplus)
	for _, r := range ranking.Rankings {
		assert.True(t, r.Components.ContributionAffordability.IsZero(),
			"no surplus means nothing is affordable")
	}
}

func TestAffordabilityFundedGoalScalesWithTinySurplus(t *testing.T) {
	user := rankerProfile()
	// Fixed 2000 + budgets 800 leave a 50-cent surplus.
	user.MonthlyIncome = decimal.NewFromFloat(2800.5)
	user.Goals = []domain.FinancialGoal{{
		ID: "funded", Name: "Funded Goal",
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(1000),
		Deadline:      rankNow.AddDate(1, 0, 0),
		Priority:      1,
		TimeHorizon:   domain.HorizonMedium,
	}}

	ranking := RankGoalsAt(user, rankNow)
	if assert.Len(t, ranking.Rankings, 1) {
		// A funded goal needs nothing per month; the dollar stand-in
		// denominator lets a sub-dollar surplus score below 1.
		affordability := ranking.Rankings[0].Components.ContributionAffordability
		assert.True(t, affordability.Equal(decimal.NewFromFloat(0.5)), "got %s", affordability)
	}
}

func TestSpendingUtilizationIgnoresIncomeCategory(t *testing.T) {
	user := rankerProfile()
	user.SpendingCategories = append(user.SpendingCategories, domain.SpendingCategory{
		ID: "income", Name: "Income",
		MonthlyBudget: decimal.NewFromInt(7000),
		CurrentSpent:  decimal.NewFromInt(7000),
	})

	util := spendingUtilization(user)
	// Without the income row: 300 spent of 800 budgeted.
	assert.True(t, util.Equal(decimal.NewFromFloat(0.375)), "got %s", util)
}

func TestPrioritizeNoGoals(t *testing.T) {
	user := rankerProfile()
	user.Goals = nil

	_, err := PrioritizeMostRealisticGoal(user, Options{})
	assert.ErrorIs(t, err, ErrNoGoals)
}

func TestPrioritizeSelectsAndRecords(t *testing.T) {
	user := rankerProfile()

	var persisted *domain.UserProfile
	decision, err := PrioritizeMostRealisticGoal(user, Options{
		Now:     func() time.Time { return rankNow },
		Persist: func(p domain.UserProfile) { persisted = &p },
	})
	if err != nil {
		t.Fatalf("PrioritizeMostRealisticGoal: %v", err)
	}

	assert.Equal(t, "nearly-done", decision.PriorityGoal.ID)
	assert.Equal(t, "nearly-done", decision.UpdatedProfile.PriorityGoalID)
	for _, g := range decision.UpdatedProfile.Goals {
		assert.Equal(t, g.ID == "nearly-done", g.IsPriority)
	}
	if assert.NotNil(t, persisted) {
		assert.Equal(t, "nearly-done", persisted.PriorityGoalID)
	}

	// The input profile is untouched.
	assert.Empty(t, user.PriorityGoalID)
	assert.False(t, user.Goals[0].IsPriority)
}

func TestPrioritizeNearTiePrefersIncumbent(t *testing.T) {
	user := rankerProfile()
	// Two identical goals tie exactly; the incumbent priority goal wins.
	user.Goals = []domain.FinancialGoal{
		{
			ID: "a", Name: "Goal A",
			TargetAmount: decimal.NewFromInt(5000), CurrentAmount: decimal.NewFromInt(4000),
			Deadline: rankNow.AddDate(2, 0, 0), Priority: 1, TimeHorizon: domain.HorizonMedium,
		},
		{
			ID: "b", Name: "Goal B",
			TargetAmount: decimal.NewFromInt(5000), CurrentAmount: decimal.NewFromInt(4000),
			Deadline: rankNow.AddDate(2, 0, 0), Priority: 2, TimeHorizon: domain.HorizonMedium,
		},
	}
	user.PriorityGoalID = "b"

	decision, err := PrioritizeMostRealisticGoal(user, Options{Now: func() time.Time { return rankNow }})
	if err != nil {
		t.Fatalf("PrioritizeMostRealisticGoal: %v", err)
	}
	assert.Equal(t, "b", decision.PriorityGoal.ID, "near ties keep the incumbent priority goal")
}

func TestReallocationBounds(t *testing.T) {
	user := rankerProfile()
	surplus := decimal.NewFromInt(1000)

	reallocs := computeReallocations(user, "distant", surplus)
	if assert.Len(t, reallocs, 1) {
		r := reallocs[0]
		// min(max(50, min(500, 7600)), 1000) = 500.
		assert.True(t, r.Amount.Equal(decimal.NewFromInt(500)), "got %s", r.Amount)
		assert.Equal(t, "general_savings", r.From)
		assert.Equal(t, "distant", r.To)
	}

	// No surplus, no advice.
	assert.Empty(t, computeReallocations(user, "distant", decimal.Zero))
	// Unknown goal, no advice.
	assert.Empty(t, computeReallocations(user, "missing", surplus))
}

func TestPrioritizeBlocksReallocationOnLowChecking(t *testing.T) {
	user := rankerProfile()
	user.Accounts.Checking = decimal.NewFromInt(500) // below the emergency floor

	decision, err := PrioritizeMostRealisticGoal(user, Options{Now: func() time.Time { return rankNow }})
	if err != nil {
		t.Fatalf("PrioritizeMostRealisticGoal: %v", err)
	}
	assert.Empty(t, decision.CapitalReallocations,
		"no reallocations when checking is under the emergency floor")
}
