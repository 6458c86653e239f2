// Package guardrail evaluates user-authored safety rules against a projected
// post-action account state. Guardrail results are data, never errors: the
// caller decides whether a violation blocks the action.
package guardrail

import (
	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
)

// Severity labels attached to violations.
const (
	SeverityBlocking = "blocking"
	SeverityWarning  = "warning"
)

// Report is the outcome of checking every guardrail. An empty guardrail list
// always passes.
type Report struct {
	Passed     bool
	Violations []domain.ConstraintViolation
}

// Check evaluates each guardrail against the projected post-action accounts.
//
// min_balance is a single strict numeric comparison: violated iff the
// post-action balance of the named account is below the threshold. Pre-action
// balances and liquidity ratios are deliberately irrelevant; other modules
// that re-check guardrails must apply the same rule.
func Check(guardrails []domain.Guardrail, before, after domain.Accounts, action domain.FinancialAction) Report {
	report := Report{Passed: true}
	for _, g := range guardrails {
		switch g.Type {
		case domain.GuardrailMinBalance:
			if v, ok := checkMinBalance(g, after); ok {
				report.Violations = append(report.Violations, v)
			}
		case domain.GuardrailMaxInvestmentPct:
			if v, ok := checkMaxInvestmentPct(g, after); ok {
				report.Violations = append(report.Violations, v)
			}
		case domain.GuardrailProtectedAccount:
			if v, ok := checkProtectedAccount(g, after, action); ok {
				report.Violations = append(report.Violations, v)
			}
		}
	}
	report.Passed = len(report.Violations) == 0
	return report
}

func checkMinBalance(g domain.Guardrail, after domain.Accounts) (domain.ConstraintViolation, bool) {
	if g.AccountID == "" || g.Threshold == nil {
		return domain.ConstraintViolation{}, false
	}
	balance, ok := after.BalanceFor(g.AccountID)
	if !ok {
		return domain.ConstraintViolation{}, false
	}
	if balance.GreaterThanOrEqual(*g.Threshold) {
		return domain.ConstraintViolation{}, false
	}
	return domain.ConstraintViolation{
		Rule:      g.Rule,
		AccountID: g.AccountID,
		Current:   balance,
		Threshold: *g.Threshold,
		Severity:  SeverityBlocking,
	}, true
}

func checkMaxInvestmentPct(g domain.Guardrail, after domain.Accounts) (domain.ConstraintViolation, bool) {
	if g.Threshold == nil {
		return domain.ConstraintViolation{}, false
	}
	total := after.TotalAssets()
	if total.LessThanOrEqual(decimal.Zero) {
		return domain.ConstraintViolation{}, false
	}
	invested := after.Investments.Total()
	share := invested.Div(total)
	if share.LessThanOrEqual(*g.Threshold) {
		return domain.ConstraintViolation{}, false
	}
	return domain.ConstraintViolation{
		Rule:      g.Rule,
		Current:   share,
		Threshold: *g.Threshold,
		Severity:  SeverityWarning,
	}, true
}

func checkProtectedAccount(g domain.Guardrail, after domain.Accounts, action domain.FinancialAction) (domain.ConstraintViolation, bool) {
	if g.AccountID == "" || action.TargetAccountID != g.AccountID {
		return domain.ConstraintViolation{}, false
	}
	balance, _ := after.BalanceFor(g.AccountID)
	return domain.ConstraintViolation{
		Rule:      g.Rule,
		AccountID: g.AccountID,
		Current:   balance,
		Severity:  SeverityBlocking,
	}, true
}
