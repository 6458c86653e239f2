// Package config loads and validates profile configuration files. Files are
// YAML; missing ids are filled in with generated UUIDs so hand-written
// profiles stay terse.
package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pfsim/pfsim/internal/domain"
)

// Configuration is the top-level file shape: one profile plus optional
// candidate actions for comparison runs.
type Configuration struct {
	Profile domain.UserProfile       `yaml:"profile"`
	Actions []domain.FinancialAction `yaml:"actions,omitempty"`
}

// InputParser handles parsing of input configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads and validates a configuration from a YAML file.
func (ip *InputParser) LoadFromFile(filename string) (*Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Load(data)
}

// Load parses and validates raw YAML configuration bytes.
func (ip *InputParser) Load(data []byte) (*Configuration, error) {
	var config Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ip.fillDefaults(&config)
	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// fillDefaults assigns generated ids to entities that were written without
// one and defaults the risk/liquidity preferences.
func (ip *InputParser) fillDefaults(config *Configuration) {
	p := &config.Profile
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for i := range p.FixedExpenses {
		if p.FixedExpenses[i].ID == "" {
			p.FixedExpenses[i].ID = uuid.NewString()
		}
	}
	for i := range p.SpendingCategories {
		fillCategoryDefaults(&p.SpendingCategories[i])
	}
	for i := range p.Goals {
		if p.Goals[i].ID == "" {
			p.Goals[i].ID = uuid.NewString()
		}
	}
	for i := range p.UpcomingExpenses {
		if p.UpcomingExpenses[i].ID == "" {
			p.UpcomingExpenses[i].ID = uuid.NewString()
		}
		if p.UpcomingExpenses[i].Status == "" {
			p.UpcomingExpenses[i].Status = "pending"
		}
	}
	for i := range p.Preferences.Guardrails {
		if p.Preferences.Guardrails[i].ID == "" {
			p.Preferences.Guardrails[i].ID = uuid.NewString()
		}
	}
	if p.Preferences.RiskTolerance == "" {
		p.Preferences.RiskTolerance = domain.RiskModerate
	}
	if p.Preferences.LiquidityPreference == "" {
		p.Preferences.LiquidityPreference = domain.LiquidityMedium
	}
}

func fillCategoryDefaults(c *domain.SpendingCategory) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i := range c.Subcategories {
		fillCategoryDefaults(&c.Subcategories[i])
	}
}

// ValidateConfiguration validates the loaded configuration
func (ip *InputParser) ValidateConfiguration(config *Configuration) error {
	if err := ip.validateProfile(&config.Profile); err != nil {
		return fmt.Errorf("profile validation failed: %w", err)
	}
	for i, action := range config.Actions {
		if err := ip.validateAction(&action); err != nil {
			return fmt.Errorf("action %d validation failed: %w", i, err)
		}
	}
	return nil
}

func (ip *InputParser) validateProfile(p *domain.UserProfile) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.MonthlyIncome.IsNegative() {
		return fmt.Errorf("monthly income cannot be negative")
	}
	if p.Accounts.Checking.IsNegative() || p.Accounts.Savings.IsNegative() {
		return fmt.Errorf("account balances cannot be negative")
	}
	if p.Accounts.Investments.Taxable.Balance.IsNegative() ||
		p.Accounts.Investments.RothIRA.Balance.IsNegative() ||
		p.Accounts.Investments.Traditional401k.Balance.IsNegative() {
		return fmt.Errorf("investment balances cannot be negative")
	}

	for i, e := range p.FixedExpenses {
		if e.Name == "" {
			return fmt.Errorf("fixed expense %d: name is required", i)
		}
		if e.Amount.IsNegative() {
			return fmt.Errorf("fixed expense %s: amount cannot be negative", e.Name)
		}
		if e.Frequency != "monthly" && e.Frequency != "annual" {
			return fmt.Errorf("fixed expense %s: frequency must be monthly or annual, got %q", e.Name, e.Frequency)
		}
	}

	for i, c := range p.SpendingCategories {
		if err := ip.validateCategory(&c); err != nil {
			return fmt.Errorf("spending category %d: %w", i, err)
		}
	}

	for i, g := range p.Goals {
		if g.Name == "" {
			return fmt.Errorf("goal %d: name is required", i)
		}
		if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("goal %s: target amount must be positive", g.Name)
		}
		if g.CurrentAmount.IsNegative() {
			return fmt.Errorf("goal %s: current amount cannot be negative", g.Name)
		}
		if g.Deadline.IsZero() {
			return fmt.Errorf("goal %s: deadline is required", g.Name)
		}
		switch g.TimeHorizon {
		case domain.HorizonShort, domain.HorizonMedium, domain.HorizonLong:
		default:
			return fmt.Errorf("goal %s: time horizon must be short, medium, or long, got %q", g.Name, g.TimeHorizon)
		}
	}
	if p.PriorityGoalID != "" && p.GoalByID(p.PriorityGoalID) == nil {
		return fmt.Errorf("priority goal id %q does not match any goal", p.PriorityGoalID)
	}

	for i, g := range p.Preferences.Guardrails {
		if err := ip.validateGuardrail(&g); err != nil {
			return fmt.Errorf("guardrail %d: %w", i, err)
		}
	}

	switch p.Preferences.RiskTolerance {
	case domain.RiskConservative, domain.RiskModerate, domain.RiskAggressive:
	default:
		return fmt.Errorf("risk tolerance must be conservative, moderate, or aggressive, got %q", p.Preferences.RiskTolerance)
	}

	return nil
}

func (ip *InputParser) validateCategory(c *domain.SpendingCategory) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.MonthlyBudget.IsNegative() {
		return fmt.Errorf("%s: monthly budget cannot be negative", c.Name)
	}
	if c.CurrentSpent.IsNegative() {
		return fmt.Errorf("%s: current spent cannot be negative", c.Name)
	}
	for i := range c.Subcategories {
		if err := ip.validateCategory(&c.Subcategories[i]); err != nil {
			return fmt.Errorf("subcategory %d: %w", i, err)
		}
	}
	return nil
}

func (ip *InputParser) validateGuardrail(g *domain.Guardrail) error {
	switch g.Type {
	case domain.GuardrailMinBalance:
		if g.AccountID == "" {
			return fmt.Errorf("min_balance guardrail requires an account id")
		}
		if g.Threshold == nil {
			return fmt.Errorf("min_balance guardrail requires a threshold")
		}
	case domain.GuardrailMaxInvestmentPct:
		if g.Threshold == nil {
			return fmt.Errorf("max_investment_pct guardrail requires a threshold")
		}
		if g.Threshold.IsNegative() || g.Threshold.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("max_investment_pct threshold must be between 0 and 1, got %s", g.Threshold)
		}
	case domain.GuardrailProtectedAccount:
		if g.AccountID == "" {
			return fmt.Errorf("protected_account guardrail requires an account id")
		}
	default:
		return fmt.Errorf("unknown guardrail type %q", g.Type)
	}
	return nil
}

func (ip *InputParser) validateAction(a *domain.FinancialAction) error {
	switch a.Type {
	case domain.ActionSave, domain.ActionInvest, domain.ActionSpend:
	default:
		return fmt.Errorf("type must be save, invest, or spend, got %q", a.Type)
	}
	if a.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive")
	}
	if a.Type == domain.ActionInvest && a.TargetAccountID != "" {
		switch a.TargetAccountID {
		case "taxable", "rothIRA", "traditional401k":
		default:
			return fmt.Errorf("invest target account must be taxable, rothIRA, or traditional401k, got %q", a.TargetAccountID)
		}
	}
	return nil
}
