package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskTolerance describes the user's appetite for investment risk.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// LiquidityPreference describes how strongly the user prefers liquid assets.
type LiquidityPreference string

const (
	LiquidityHigh   LiquidityPreference = "high"
	LiquidityMedium LiquidityPreference = "medium"
	LiquidityLow    LiquidityPreference = "low"
)

// TimeHorizon classifies a goal's distance: short (< 2yr), medium (2-5yr), long (5yr+).
type TimeHorizon string

const (
	HorizonShort  TimeHorizon = "short"
	HorizonMedium TimeHorizon = "medium"
	HorizonLong   TimeHorizon = "long"
)

// UserProfile is the aggregate root for a user's financial state. It is treated
// as an immutable value at every call boundary: operations that change state
// return a new profile and never mutate their input.
type UserProfile struct {
	ID                 string             `yaml:"id" json:"id"`
	Name               string             `yaml:"name" json:"name"`
	MonthlyIncome      decimal.Decimal    `yaml:"monthly_income" json:"monthlyIncome"`
	Accounts           Accounts           `yaml:"accounts" json:"accounts"`
	FixedExpenses      []FixedExpense     `yaml:"fixed_expenses" json:"fixedExpenses"`
	SpendingCategories []SpendingCategory `yaml:"spending_categories" json:"spendingCategories"`
	Goals              []FinancialGoal    `yaml:"goals" json:"goals"`
	Preferences        UserPreferences    `yaml:"preferences" json:"preferences"`
	UpcomingExpenses   []UpcomingExpense  `yaml:"upcoming_expenses,omitempty" json:"upcomingExpenses,omitempty"`

	PriorityGoalID string `yaml:"priority_goal_id,omitempty" json:"priorityGoalId,omitempty"`

	StabilizationMode       bool       `yaml:"stabilization_mode,omitempty" json:"stabilizationMode,omitempty"`
	StabilizationStart      *time.Time `yaml:"stabilization_start,omitempty" json:"stabilizationStart,omitempty"`
	StabilizationEnd        *time.Time `yaml:"stabilization_end,omitempty" json:"stabilizationEnd,omitempty"`
	StabilizationCanceledAt *time.Time `yaml:"stabilization_canceled_at,omitempty" json:"stabilizationCanceledAt,omitempty"`

	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updatedAt"`
}

// FixedExpense is a recurring non-discretionary expense (rent, loan payment).
type FixedExpense struct {
	ID        string          `yaml:"id" json:"id"`
	Name      string          `yaml:"name" json:"name"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount"`
	Frequency string          `yaml:"frequency" json:"frequency"` // "monthly" or "annual"
	DueDay    int             `yaml:"due_day,omitempty" json:"dueDay,omitempty"`
}

// MonthlyAmount normalizes the expense to a per-month figure.
func (e FixedExpense) MonthlyAmount() decimal.Decimal {
	if e.Frequency == "annual" {
		return e.Amount.Div(decimal.NewFromInt(12))
	}
	return e.Amount
}

// SpendingCategory tracks discretionary spending against a monthly budget
// threshold. MonthlyBudget is a limit, not a balance: changing it never moves
// money between accounts.
type SpendingCategory struct {
	ID            string             `yaml:"id" json:"id"`
	Name          string             `yaml:"name" json:"name"`
	MonthlyBudget decimal.Decimal    `yaml:"monthly_budget" json:"monthlyBudget"`
	CurrentSpent  decimal.Decimal    `yaml:"current_spent" json:"currentSpent"`
	Transactions  []Transaction      `yaml:"transactions,omitempty" json:"transactions,omitempty"`
	Subcategories []SpendingCategory `yaml:"subcategories,omitempty" json:"subcategories,omitempty"`
}

// Transaction is a single dated entry within a spending category.
type Transaction struct {
	ID          string          `yaml:"id" json:"id"`
	Date        time.Time       `yaml:"date" json:"date"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	Category    string          `yaml:"category" json:"category"`
	Description string          `yaml:"description" json:"description"`
	Type        string          `yaml:"type" json:"type"` // "expense", "income", or "transfer"
}

// UpcomingExpense is a known future obligation used when sizing the liquidity
// buffer. Status is "pending", "paid", or "overdue".
type UpcomingExpense struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	DueDate     time.Time       `yaml:"due_date" json:"dueDate"`
	IsRecurring bool            `yaml:"is_recurring,omitempty" json:"isRecurring,omitempty"`
	Status      string          `yaml:"status,omitempty" json:"status,omitempty"`
	CategoryID  string          `yaml:"category_id,omitempty" json:"categoryId,omitempty"`
	Notes       string          `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// FinancialGoal is a target the user is saving toward. CurrentAmount may
// exceed TargetAmount; overshoot is valid, not an error.
type FinancialGoal struct {
	ID               string          `yaml:"id" json:"id"`
	Name             string          `yaml:"name" json:"name"`
	TargetAmount     decimal.Decimal `yaml:"target_amount" json:"targetAmount"`
	CurrentAmount    decimal.Decimal `yaml:"current_amount" json:"currentAmount"`
	Deadline         time.Time       `yaml:"deadline" json:"deadline"`
	Priority         int             `yaml:"priority" json:"priority"`
	TimeHorizon      TimeHorizon     `yaml:"time_horizon" json:"timeHorizon"`
	LinkedAccountIDs []string        `yaml:"linked_account_ids,omitempty" json:"linkedAccountIds,omitempty"`
	IsPriority       bool            `yaml:"is_priority,omitempty" json:"isPriority,omitempty"`
}

// Gap returns the unfunded remainder, floored at zero.
func (g FinancialGoal) Gap() decimal.Decimal {
	gap := g.TargetAmount.Sub(g.CurrentAmount)
	if gap.IsNegative() {
		return decimal.Zero
	}
	return gap
}

// ProgressPercent returns current/target as a percentage. A non-positive
// target counts as fully funded.
func (g FinancialGoal) ProgressPercent() decimal.Decimal {
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(100)
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
}

// GuardrailType enumerates the supported guardrail kinds.
type GuardrailType string

const (
	GuardrailMinBalance       GuardrailType = "min_balance"
	GuardrailMaxInvestmentPct GuardrailType = "max_investment_pct"
	GuardrailProtectedAccount GuardrailType = "protected_account"
)

// Guardrail is a user-authored safety rule. The core only evaluates
// guardrails; it never creates or mutates them.
type Guardrail struct {
	ID        string           `yaml:"id" json:"id"`
	Rule      string           `yaml:"rule" json:"rule"`
	Type      GuardrailType    `yaml:"type" json:"type"`
	AccountID string           `yaml:"account_id,omitempty" json:"accountId,omitempty"`
	Threshold *decimal.Decimal `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// InvestmentPreferences configures the deterministic investment reminder.
type InvestmentPreferences struct {
	AutoInvestEnabled       bool             `yaml:"auto_invest_enabled,omitempty" json:"autoInvestEnabled,omitempty"`
	ReminderFrequency       string           `yaml:"reminder_frequency,omitempty" json:"reminderFrequency,omitempty"` // weekly|biweekly|monthly|quarterly|none
	TargetMonthlyInvestment *decimal.Decimal `yaml:"target_monthly_investment,omitempty" json:"targetMonthlyInvestment,omitempty"`
	PreferredAccount        string           `yaml:"preferred_account,omitempty" json:"preferredAccount,omitempty"`
	LastInvestmentDate      *time.Time       `yaml:"last_investment_date,omitempty" json:"lastInvestmentDate,omitempty"`
}

// UserPreferences bundles the user's risk profile and guardrails.
type UserPreferences struct {
	RiskTolerance         RiskTolerance          `yaml:"risk_tolerance" json:"riskTolerance"`
	LiquidityPreference   LiquidityPreference    `yaml:"liquidity_preference" json:"liquidityPreference"`
	Guardrails            []Guardrail            `yaml:"guardrails,omitempty" json:"guardrails,omitempty"`
	InvestmentPreferences *InvestmentPreferences `yaml:"investment_preferences,omitempty" json:"investmentPreferences,omitempty"`
}

// MonthlyFixedExpenses returns the sum of all fixed expenses normalized to
// monthly amounts.
func (u UserProfile) MonthlyFixedExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, e := range u.FixedExpenses {
		total = total.Add(e.MonthlyAmount())
	}
	return total
}

// TotalDiscretionaryBudget returns the sum of all category budget thresholds.
func (u UserProfile) TotalDiscretionaryBudget() decimal.Decimal {
	total := decimal.Zero
	for _, c := range u.SpendingCategories {
		total = total.Add(c.MonthlyBudget)
	}
	return total
}

// MonthlyExpenses is the full monthly outflow: fixed plus budgeted discretionary.
func (u UserProfile) MonthlyExpenses() decimal.Decimal {
	return u.MonthlyFixedExpenses().Add(u.TotalDiscretionaryBudget())
}

// MonthlySurplus is income minus fixed expenses and discretionary budgets.
// It may be negative; callers that need a floor clamp it themselves.
func (u UserProfile) MonthlySurplus() decimal.Decimal {
	return u.MonthlyIncome.Sub(u.MonthlyFixedExpenses()).Sub(u.TotalDiscretionaryBudget())
}

// GoalByID returns the goal with the given id, or nil when absent.
func (u UserProfile) GoalByID(id string) *FinancialGoal {
	for i := range u.Goals {
		if u.Goals[i].ID == id {
			return &u.Goals[i]
		}
	}
	return nil
}

// CategoryByRef resolves a spending category by id or, failing that, by name.
func (u UserProfile) CategoryByRef(ref string) *SpendingCategory {
	for i := range u.SpendingCategories {
		if u.SpendingCategories[i].ID == ref || u.SpendingCategories[i].Name == ref {
			return &u.SpendingCategories[i]
		}
	}
	return nil
}

// TransactionCount returns the total number of recorded transactions across
// all spending categories; the simulation engine uses it to judge how much
// history backs a projection.
func (u UserProfile) TransactionCount() int {
	n := 0
	for _, c := range u.SpendingCategories {
		n += len(c.Transactions)
	}
	return n
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (u UserProfile) Clone() UserProfile {
	out := u
	out.Accounts = u.Accounts.Clone()

	out.FixedExpenses = make([]FixedExpense, len(u.FixedExpenses))
	copy(out.FixedExpenses, u.FixedExpenses)

	out.SpendingCategories = make([]SpendingCategory, len(u.SpendingCategories))
	for i, c := range u.SpendingCategories {
		out.SpendingCategories[i] = c.Clone()
	}

	out.Goals = make([]FinancialGoal, len(u.Goals))
	for i, g := range u.Goals {
		out.Goals[i] = g
		if g.LinkedAccountIDs != nil {
			out.Goals[i].LinkedAccountIDs = append([]string(nil), g.LinkedAccountIDs...)
		}
	}

	if u.UpcomingExpenses != nil {
		out.UpcomingExpenses = append([]UpcomingExpense(nil), u.UpcomingExpenses...)
	}

	out.Preferences = u.Preferences.Clone()

	if u.StabilizationStart != nil {
		t := *u.StabilizationStart
		out.StabilizationStart = &t
	}
	if u.StabilizationEnd != nil {
		t := *u.StabilizationEnd
		out.StabilizationEnd = &t
	}
	if u.StabilizationCanceledAt != nil {
		t := *u.StabilizationCanceledAt
		out.StabilizationCanceledAt = &t
	}
	return out
}

// Clone returns a deep copy of the category, including transactions and
// subcategories.
func (c SpendingCategory) Clone() SpendingCategory {
	out := c
	if c.Transactions != nil {
		out.Transactions = append([]Transaction(nil), c.Transactions...)
	}
	if c.Subcategories != nil {
		out.Subcategories = make([]SpendingCategory, len(c.Subcategories))
		for i, sub := range c.Subcategories {
			out.Subcategories[i] = sub.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the preferences.
func (p UserPreferences) Clone() UserPreferences {
	out := p
	if p.Guardrails != nil {
		out.Guardrails = make([]Guardrail, len(p.Guardrails))
		for i, g := range p.Guardrails {
			out.Guardrails[i] = g
			if g.Threshold != nil {
				th := *g.Threshold
				out.Guardrails[i].Threshold = &th
			}
		}
	}
	if p.InvestmentPreferences != nil {
		ip := *p.InvestmentPreferences
		if p.InvestmentPreferences.TargetMonthlyInvestment != nil {
			t := *p.InvestmentPreferences.TargetMonthlyInvestment
			ip.TargetMonthlyInvestment = &t
		}
		if p.InvestmentPreferences.LastInvestmentDate != nil {
			d := *p.InvestmentPreferences.LastInvestmentDate
			ip.LastInvestmentDate = &d
		}
		out.InvestmentPreferences = &ip
	}
	return out
}
