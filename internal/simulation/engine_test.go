package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pfsim/pfsim/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	e := NewEngine()
	e.Now = func() time.Time { return testNow }
	return e
}

func testProfile() domain.UserProfile {
	return domain.UserProfile{
		ID:            "user-1",
		Name:          "Jordan",
		MonthlyIncome: decimal.NewFromInt(6000),
		Accounts: domain.Accounts{
			Checking: decimal.NewFromInt(3000),
			Savings:  decimal.NewFromInt(8000),
			Investments: domain.InvestmentAccounts{
				Taxable: domain.InvestmentAccount{Balance: decimal.NewFromInt(5000)},
			},
		},
		FixedExpenses: []domain.FixedExpense{
			{ID: "rent", Name: "Rent", Amount: decimal.NewFromInt(1800), Frequency: "monthly"},
		},
		SpendingCategories: []domain.SpendingCategory{
			{ID: "groceries", Name: "Groceries", MonthlyBudget: decimal.NewFromInt(400), CurrentSpent: decimal.NewFromInt(100)},
			{ID: "dining", Name: "Dining Out", MonthlyBudget: decimal.NewFromInt(200), CurrentSpent: decimal.NewFromInt(150)},
		},
		Goals: []domain.FinancialGoal{
			{
				ID: "goal-1", Name: "Emergency Fund",
				TargetAmount:  decimal.NewFromInt(10000),
				CurrentAmount: decimal.NewFromInt(4000),
				Deadline:      testNow.AddDate(2, 0, 0),
				Priority:      1,
				TimeHorizon:   domain.HorizonShort,
			},
		},
		Preferences: domain.UserPreferences{
			RiskTolerance:       domain.RiskModerate,
			LiquidityPreference: domain.LiquidityMedium,
		},
		CreatedAt: testNow.AddDate(-1, 0, 0),
		UpdatedAt: testNow.AddDate(0, -1, 0),
	}
}

func TestSimulateSaveMovesBalances(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	result := engine.SimulateSave(user, decimal.NewFromInt(500), "goal-1")

	after := result.ScenarioIfDo.AccountsAfter
	assert.True(t, after.Checking.Equal(decimal.NewFromInt(2500)), "checking should drop to 2500, got %s", after.Checking)
	assert.True(t, after.Savings.Equal(decimal.NewFromInt(8500)), "savings should rise to 8500, got %s", after.Savings)

	// The status-quo branch keeps balances untouched.
	dont := result.ScenarioIfDont.AccountsAfter
	assert.True(t, dont.Checking.Equal(decimal.NewFromInt(3000)))
	assert.True(t, dont.Savings.Equal(decimal.NewFromInt(8000)))

	if assert.Len(t, result.ScenarioIfDo.GoalImpacts, 1) {
		impact := result.ScenarioIfDo.GoalImpacts[0]
		assert.Equal(t, "goal-1", impact.GoalID)
		assert.True(t, impact.ProgressChangePct.Equal(decimal.NewFromInt(5)), "500 of 10000 is 5%%, got %s", impact.ProgressChangePct)
	}
}

func TestSimulateSaveDoesNotMutateInput(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	engine.SimulateSave(user, decimal.NewFromInt(500), "goal-1")

	assert.True(t, user.Accounts.Checking.Equal(decimal.NewFromInt(3000)), "input checking mutated")
	assert.True(t, user.Accounts.Savings.Equal(decimal.NewFromInt(8000)), "input savings mutated")
	assert.True(t, user.Goals[0].CurrentAmount.Equal(decimal.NewFromInt(4000)), "input goal mutated")
}

func TestSimulateInvestConfidenceCapsAtMedium(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	result := engine.SimulateInvest(user, decimal.NewFromInt(1000), "taxable", "", 0)

	assert.True(t, result.ValidationResult.Passed)
	assert.Equal(t, domain.ConfidenceMedium, result.Confidence, "market projections never earn high confidence")
	assert.True(t, result.ScenarioIfDo.AccountsAfter.Investments.Taxable.Balance.Equal(decimal.NewFromInt(6000)))
}

func TestSimulateInvestUnknownSlotFallsBackToTaxable(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	result := engine.SimulateInvest(user, decimal.NewFromInt(500), "crypto", "", 0)

	assert.Equal(t, "taxable", result.Action.TargetAccountID, "unknown slot names normalize to taxable")
	after := result.ScenarioIfDo.AccountsAfter
	assert.True(t, after.Investments.Taxable.Balance.Equal(decimal.NewFromInt(5500)), "got %s", after.Investments.Taxable.Balance)
	assert.True(t, after.TotalAssets().Equal(user.Accounts.TotalAssets()),
		"the debit must land somewhere; total assets are conserved")
}

func TestSimulateSpendOverBudget(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	// Dining is at 150/200; spending 100 more goes over.
	result := engine.SimulateSpend(user, decimal.NewFromInt(100), "Dining Out")

	var dining *domain.BudgetImpact
	for i := range result.ScenarioIfDo.BudgetImpacts {
		if result.ScenarioIfDo.BudgetImpacts[i].CategoryID == "dining" {
			dining = &result.ScenarioIfDo.BudgetImpacts[i]
		}
	}
	if dining == nil {
		t.Fatal("dining budget impact missing")
	}
	assert.Equal(t, domain.BudgetOver, dining.Status)
	assert.NotEmpty(t, result.ValidationResult.Contradictions)
	assert.Equal(t, domain.ConfidenceMedium, result.Confidence)
}

func TestSimulateGuardrailFailureLowersConfidence(t *testing.T) {
	engine := testEngine()
	user := testProfile()
	min := decimal.NewFromInt(3000)
	user.Preferences.Guardrails = []domain.Guardrail{{
		ID: "g1", Rule: "Keep checking above $3,000",
		Type: domain.GuardrailMinBalance, AccountID: "checking", Threshold: &min,
	}}

	result := engine.SimulateSave(user, decimal.NewFromInt(500), "goal-1")

	assert.False(t, result.ValidationResult.Passed)
	assert.Equal(t, domain.ConfidenceLow, result.Confidence)
	assert.Len(t, result.ValidationResult.ConstraintViolations, 1)
}

func TestApplyActionSave(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	action := domain.FinancialAction{
		Type:   domain.ActionSave,
		Amount: decimal.NewFromInt(500),
		GoalID: "goal-1",
	}
	updated, result, err := engine.ApplyAction(user, action)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}

	assert.True(t, updated.Accounts.Checking.Equal(decimal.NewFromInt(2500)))
	assert.True(t, updated.Accounts.Savings.Equal(decimal.NewFromInt(8500)))
	assert.True(t, updated.Goals[0].CurrentAmount.Equal(decimal.NewFromInt(4500)), "goal should be credited")
	assert.Equal(t, testNow, updated.UpdatedAt)
	assert.NotNil(t, result)

	// The input profile is untouched.
	assert.True(t, user.Accounts.Checking.Equal(decimal.NewFromInt(3000)))
	assert.True(t, user.Goals[0].CurrentAmount.Equal(decimal.NewFromInt(4000)))
}

func TestApplyActionSpendBumpsCategoryNotThreshold(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	action := domain.FinancialAction{
		Type:     domain.ActionSpend,
		Amount:   decimal.NewFromInt(50),
		Category: "Groceries",
	}
	updated, _, err := engine.ApplyAction(user, action)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}

	groceries := updated.CategoryByRef("groceries")
	if groceries == nil {
		t.Fatal("groceries category missing")
	}
	assert.True(t, groceries.CurrentSpent.Equal(decimal.NewFromInt(150)), "spent should move 100 -> 150, got %s", groceries.CurrentSpent)
	assert.True(t, groceries.MonthlyBudget.Equal(decimal.NewFromInt(400)), "budget threshold must not move")
	assert.True(t, updated.Accounts.Checking.Equal(decimal.NewFromInt(2950)))
}

func TestApplyActionDeltasAreExactlyInvertible(t *testing.T) {
	engine := testEngine()
	user := testProfile()
	amount := decimal.NewFromInt(500)

	// Save moves exactly amount from checking to savings, so adding the
	// inverse delta reproduces the original balances to the cent.
	saved, _, err := engine.ApplyAction(user, domain.FinancialAction{
		Type: domain.ActionSave, Amount: amount, GoalID: "goal-1",
	})
	if err != nil {
		t.Fatalf("ApplyAction save: %v", err)
	}
	assert.True(t, saved.Accounts.Checking.Add(amount).Equal(user.Accounts.Checking))
	assert.True(t, saved.Accounts.Savings.Sub(amount).Equal(user.Accounts.Savings))
	assert.True(t, saved.Accounts.TotalAssets().Equal(user.Accounts.TotalAssets()),
		"a transfer must not create or destroy money")

	// Same for invest: checking down by amount, the slot up by amount.
	invested, _, err := engine.ApplyAction(user, domain.FinancialAction{
		Type: domain.ActionInvest, Amount: amount, TargetAccountID: "taxable",
	})
	if err != nil {
		t.Fatalf("ApplyAction invest: %v", err)
	}
	assert.True(t, invested.Accounts.Checking.Add(amount).Equal(user.Accounts.Checking))
	assert.True(t, invested.Accounts.Investments.Taxable.Balance.Sub(amount).Equal(user.Accounts.Investments.Taxable.Balance))
	assert.True(t, invested.Accounts.TotalAssets().Equal(user.Accounts.TotalAssets()))
}

func TestApplyActionUnknownType(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	_, _, err := engine.ApplyAction(user, domain.FinancialAction{Type: "donate", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, ErrUnknownActionType) {
		t.Fatalf("expected ErrUnknownActionType, got %v", err)
	}
}

func TestCompareOptionsOrderAndIndependence(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	actions := []domain.FinancialAction{
		{Type: domain.ActionSave, Amount: decimal.NewFromInt(500), GoalID: "goal-1"},
		{Type: domain.ActionInvest, Amount: decimal.NewFromInt(500), TargetAccountID: "taxable"},
		{Type: domain.ActionSpend, Amount: decimal.NewFromInt(500), Category: "Groceries"},
	}
	results, err := engine.CompareOptions(user, actions)
	if err != nil {
		t.Fatalf("CompareOptions: %v", err)
	}
	if assert.Len(t, results, 3) {
		assert.Equal(t, domain.ActionSave, results[0].Action.Type)
		assert.Equal(t, domain.ActionInvest, results[1].Action.Type)
		assert.Equal(t, domain.ActionSpend, results[2].Action.Type)

		// Each option starts from the same baseline; they never stack.
		for _, r := range results {
			assert.True(t, r.ScenarioIfDo.AccountsAfter.Checking.Equal(decimal.NewFromInt(2500)),
				"each option should subtract from the same starting checking balance")
		}
	}
}

func TestCompareOptionsUnknownTypeFails(t *testing.T) {
	engine := testEngine()
	user := testProfile()

	_, err := engine.CompareOptions(user, []domain.FinancialAction{
		{Type: domain.ActionSave, Amount: decimal.NewFromInt(100)},
		{Type: "gamble", Amount: decimal.NewFromInt(100)},
	})
	if !errors.Is(err, ErrUnknownActionType) {
		t.Fatalf("expected ErrUnknownActionType, got %v", err)
	}
}

func TestSparseHistoryLowersConfidence(t *testing.T) {
	engine := testEngine()
	user := testProfile()
	// No transactions recorded: history is sparse.
	result := engine.SimulateSave(user, decimal.NewFromInt(100), "")
	assert.Equal(t, domain.ConfidenceMedium, result.Confidence)
	assert.NotEmpty(t, result.ValidationResult.UncertaintySources)

	// With enough history the same action earns high confidence.
	for i := 0; i < 6; i++ {
		user.SpendingCategories[0].Transactions = append(user.SpendingCategories[0].Transactions, domain.Transaction{
			ID: "t", Date: testNow, Amount: decimal.NewFromInt(10), Type: "expense",
		})
	}
	result = engine.SimulateSave(user, decimal.NewFromInt(100), "")
	assert.Equal(t, domain.ConfidenceHigh, result.Confidence)
}
