package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConfidenceLevel grades how much trust a simulation deserves.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// BudgetStatus is the health band for a spending category.
type BudgetStatus string

const (
	BudgetUnder   BudgetStatus = "under"
	BudgetGood    BudgetStatus = "good"
	BudgetWarning BudgetStatus = "warning"
	BudgetOver    BudgetStatus = "over"
)

// UnreachableMonths is the sentinel time-to-goal for goals that never close
// at the given contribution rate.
const UnreachableMonths = 1 << 30

// GoalImpact describes how an action moves one goal.
type GoalImpact struct {
	GoalID            string           `json:"goalId"`
	GoalName          string           `json:"goalName"`
	ProgressChangePct decimal.Decimal  `json:"progressChangePct"`
	TimeToGoalBefore  int              `json:"timeToGoalBefore"` // months; UnreachableMonths when never
	TimeToGoalAfter   int              `json:"timeToGoalAfter"`
	TimeSaved         int              `json:"timeSaved"`
	FutureValue       *decimal.Decimal `json:"futureValue,omitempty"`
}

// BudgetImpact describes a category's budget position after an action.
type BudgetImpact struct {
	CategoryID      string          `json:"categoryId"`
	CategoryName    string          `json:"categoryName"`
	PercentUsed     decimal.Decimal `json:"percentUsed"`
	AmountRemaining decimal.Decimal `json:"amountRemaining"`
	Status          BudgetStatus    `json:"status"`
}

// Scenario is one branch of a simulation: the world if the action is taken,
// or the world if it is not.
type Scenario struct {
	AccountsAfter   Accounts       `json:"accountsAfter"`
	GoalImpacts     []GoalImpact   `json:"goalImpacts"`
	BudgetImpacts   []BudgetImpact `json:"budgetImpacts"`
	LiquidityImpact string         `json:"liquidityImpact"`
	RiskImpact      string         `json:"riskImpact"`
	TimelineChanges []string       `json:"timelineChanges"`
}

// ConstraintViolation is one broken guardrail, reported as data rather than
// an error so callers decide whether to block.
type ConstraintViolation struct {
	Rule      string          `json:"rule"`
	AccountID string          `json:"accountId,omitempty"`
	Current   decimal.Decimal `json:"current"`
	Threshold decimal.Decimal `json:"threshold"`
	Severity  string          `json:"severity"`
}

// ValidationResult bundles constraint checks and plausibility caveats for a
// simulated action.
type ValidationResult struct {
	Passed               bool                  `json:"passed"`
	ConstraintViolations []ConstraintViolation `json:"constraintViolations"`
	Contradictions       []string              `json:"contradictions"`
	UncertaintySources   []string              `json:"uncertaintySources"`
	OverallConfidence    ConfidenceLevel       `json:"overallConfidence"`
}

// SimulationResult is the full two-branch projection for one action.
// It is created fresh per call and never persisted by the core.
type SimulationResult struct {
	Action           FinancialAction  `json:"action"`
	ScenarioIfDo     Scenario         `json:"scenarioIfDo"`
	ScenarioIfDont   Scenario         `json:"scenarioIfDont"`
	Confidence       ConfidenceLevel  `json:"confidence"`
	Reasoning        string           `json:"reasoning"`
	ValidationResult ValidationResult `json:"validationResult"`
}

// ExecutedActionRecord is one audit-log entry: an applied action with
// before/after profile snapshots. Records are immutable after creation.
type ExecutedActionRecord struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Action        FinancialAction `json:"action"`
	PreviousState UserProfile     `json:"previousState"`
	NewState      UserProfile     `json:"newState"`
	Timestamp     time.Time       `json:"timestamp"`
}
