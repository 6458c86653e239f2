package config

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pfsim/pfsim/internal/domain"
)

const validConfig = `
profile:
  name: Jordan
  monthly_income: 6000
  accounts:
    checking: 2500
    savings: 9000
    investments:
      taxable: 15000
      roth_ira:
        balance: 5000
        allocation:
          stocks: 80
          bonds: 20
  fixed_expenses:
    - name: Rent
      amount: 1800
      frequency: monthly
    - name: Insurance
      amount: 1200
      frequency: annual
  spending_categories:
    - name: Groceries
      monthly_budget: 500
      current_spent: 120
  goals:
    - id: emergency
      name: Emergency Fund
      target_amount: 10000
      current_amount: 4000
      deadline: 2027-01-01T00:00:00Z
      priority: 1
      time_horizon: short
  preferences:
    risk_tolerance: moderate
    liquidity_preference: high
    guardrails:
      - rule: Keep checking above $1000
        type: min_balance
        account_id: checking
        threshold: 1000
actions:
  - type: save
    amount: 500
    goal_id: emergency
  - type: invest
    amount: 300
    target_account_id: taxable
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := NewInputParser().Load([]byte(validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := cfg.Profile
	assert.Equal(t, "Jordan", p.Name)
	assert.True(t, p.MonthlyIncome.Equal(decimal.NewFromInt(6000)))

	// The bare-number slot carries no allocation; the mapping form does.
	assert.True(t, p.Accounts.Investments.Taxable.Balance.Equal(decimal.NewFromInt(15000)))
	assert.Nil(t, p.Accounts.Investments.Taxable.Allocation)
	if assert.NotNil(t, p.Accounts.Investments.RothIRA.Allocation) {
		assert.True(t, p.Accounts.Investments.RothIRA.Allocation.Stocks.Equal(decimal.NewFromInt(80)))
	}

	if assert.Len(t, cfg.Actions, 2) {
		assert.Equal(t, domain.ActionSave, cfg.Actions[0].Type)
		assert.Equal(t, "emergency", cfg.Actions[0].GoalID)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	cfg, err := NewInputParser().Load([]byte(validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := cfg.Profile
	assert.NotEmpty(t, p.ID, "a missing profile id is generated")
	assert.NotEmpty(t, p.FixedExpenses[0].ID)
	assert.NotEmpty(t, p.SpendingCategories[0].ID)
	assert.NotEmpty(t, p.Preferences.Guardrails[0].ID)
	assert.Equal(t, "emergency", p.Goals[0].ID, "explicit ids are kept")
	assert.Equal(t, domain.LiquidityHigh, p.Preferences.LiquidityPreference)
}

func TestLoadDefaultsPreferences(t *testing.T) {
	cfg, err := NewInputParser().Load([]byte("profile:\n  name: Jordan\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assert.Equal(t, domain.RiskModerate, cfg.Profile.Preferences.RiskTolerance)
	assert.Equal(t, domain.LiquidityMedium, cfg.Profile.Preferences.LiquidityPreference)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := NewInputParser().Load([]byte("profile: [unclosed"))
	assert.Error(t, err)
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(c *Configuration) { c.Profile.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "negative income",
			mutate:  func(c *Configuration) { c.Profile.MonthlyIncome = decimal.NewFromInt(-1) },
			wantErr: "monthly income",
		},
		{
			name:    "bad expense frequency",
			mutate:  func(c *Configuration) { c.Profile.FixedExpenses[0].Frequency = "weekly" },
			wantErr: "frequency must be monthly or annual",
		},
		{
			name:    "zero goal target",
			mutate:  func(c *Configuration) { c.Profile.Goals[0].TargetAmount = decimal.Zero },
			wantErr: "target amount must be positive",
		},
		{
			name:    "bad time horizon",
			mutate:  func(c *Configuration) { c.Profile.Goals[0].TimeHorizon = "eventually" },
			wantErr: "time horizon",
		},
		{
			name:    "dangling priority goal id",
			mutate:  func(c *Configuration) { c.Profile.PriorityGoalID = "missing" },
			wantErr: "does not match any goal",
		},
		{
			name: "min balance guardrail without account",
			mutate: func(c *Configuration) {
				c.Profile.Preferences.Guardrails[0].AccountID = ""
			},
			wantErr: "requires an account id",
		},
		{
			name: "max investment pct out of range",
			mutate: func(c *Configuration) {
				th := decimal.NewFromInt(2)
				c.Profile.Preferences.Guardrails[0] = domain.Guardrail{
					ID: "g", Type: domain.GuardrailMaxInvestmentPct, Threshold: &th,
				}
			},
			wantErr: "between 0 and 1",
		},
		{
			name:    "bad risk tolerance",
			mutate:  func(c *Configuration) { c.Profile.Preferences.RiskTolerance = "yolo" },
			wantErr: "risk tolerance",
		},
		{
			name:    "bad action type",
			mutate:  func(c *Configuration) { c.Actions[0].Type = "borrow" },
			wantErr: "type must be save, invest, or spend",
		},
		{
			name:    "non-positive action amount",
			mutate:  func(c *Configuration) { c.Actions[0].Amount = decimal.Zero },
			wantErr: "amount must be positive",
		},
		{
			name:    "bad invest target",
			mutate:  func(c *Configuration) { c.Actions[1].TargetAccountID = "crypto" },
			wantErr: "invest target account",
		},
	}

	parser := NewInputParser()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parser.Load([]byte(validConfig))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tc.mutate(cfg)
			err = parser.ValidateConfiguration(cfg)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := NewInputParser().LoadFromFile("does-not-exist.yaml")
	assert.Error(t, err)
}
