package insights

import (
	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
)

// RiskBreakdown holds the four 0-100 component scores behind the composite.
type RiskBreakdown struct {
	InvestmentVolatility int `json:"investmentVolatility"`
	EmergencyBuffer      int `json:"emergencyBuffer"`
	FixedCostExposure    int `json:"fixedCostExposure"`
	CashFlowStability    int `json:"cashFlowStability"`
}

// RiskScoreResult is the 0-100 composite risk score, higher meaning riskier.
type RiskScoreResult struct {
	Overall   int           `json:"overall"`
	Breakdown RiskBreakdown `json:"breakdown"`
}

// RiskScore grades a profile's financial risk as a weighted composite:
// investment volatility 35%, emergency buffer 30%, fixed-cost exposure 20%,
// cash-flow stability 15%.
func RiskScore(user domain.UserProfile) RiskScoreResult {
	hundred := decimal.NewFromInt(100)

	// Volatility tracks the balance-weighted stock share of the portfolio.
	volatility := user.Accounts.Investments.PortfolioAllocation().Stocks
	if volatility.GreaterThan(hundred) {
		volatility = hundred
	}

	monthlyExpenses := user.MonthlyExpenses()

	monthsCovered := decimal.NewFromInt(12)
	if monthlyExpenses.GreaterThan(decimal.Zero) {
		monthsCovered = user.Accounts.Liquid().Div(monthlyExpenses)
	}
	emergencyBuffer := clampScore(decimal.NewFromInt(1).Sub(monthsCovered.Div(decimal.NewFromInt(6))).Mul(hundred))

	fixedRatio := decimal.NewFromInt(1)
	if user.MonthlyIncome.GreaterThan(decimal.Zero) {
		fixedRatio = user.MonthlyFixedExpenses().Div(user.MonthlyIncome)
	}
	fixedExposure := fixedRatio.Mul(decimal.NewFromInt(200))
	if fixedExposure.GreaterThan(hundred) {
		fixedExposure = hundred
	}

	checkingMonths := decimal.NewFromInt(3)
	if monthlyExpenses.GreaterThan(decimal.Zero) {
		checkingMonths = user.Accounts.Checking.Div(monthlyExpenses)
	}
	cashFlow := clampScore(decimal.NewFromInt(1).Sub(checkingMonths.Div(decimal.NewFromInt(2))).Mul(hundred))

	overall := volatility.Mul(decimal.NewFromFloat(0.35)).
		Add(emergencyBuffer.Mul(decimal.NewFromFloat(0.30))).
		Add(fixedExposure.Mul(decimal.NewFromFloat(0.20))).
		Add(cashFlow.Mul(decimal.NewFromFloat(0.15)))

	return RiskScoreResult{
		Overall: int(overall.Round(0).IntPart()),
		Breakdown: RiskBreakdown{
			InvestmentVolatility: int(volatility.Round(0).IntPart()),
			EmergencyBuffer:      int(emergencyBuffer.Round(0).IntPart()),
			FixedCostExposure:    int(fixedExposure.Round(0).IntPart()),
			CashFlowStability:    int(cashFlow.Round(0).IntPart()),
		},
	}
}

func clampScore(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return v
}
