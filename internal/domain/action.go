package domain

import "github.com/shopspring/decimal"

// ActionType enumerates the supported financial actions.
type ActionType string

const (
	ActionSave   ActionType = "save"
	ActionInvest ActionType = "invest"
	ActionSpend  ActionType = "spend"
)

// FinancialAction is a proposed money movement to evaluate or apply.
type FinancialAction struct {
	Type            ActionType      `yaml:"type" json:"type"`
	Amount          decimal.Decimal `yaml:"amount" json:"amount"`
	TargetAccountID string          `yaml:"target_account_id,omitempty" json:"targetAccountId,omitempty"`
	GoalID          string          `yaml:"goal_id,omitempty" json:"goalId,omitempty"`
	Category        string          `yaml:"category,omitempty" json:"category,omitempty"`
}
