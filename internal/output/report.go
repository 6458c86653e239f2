// Package output renders simulation results, comparisons, rankings, and
// plans as console text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/feasibility"
	"github.com/pfsim/pfsim/internal/stabilize"
)

// ReportGenerator handles report generation in various formats.
type ReportGenerator struct {
	w io.Writer
}

// NewReportGenerator creates a generator writing to w.
func NewReportGenerator(w io.Writer) *ReportGenerator {
	return &ReportGenerator{w: w}
}

// FormatCurrency renders a decimal as $X,XXX.XX.
func FormatCurrency(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)

	out := "$" + strings.Join(grouped, ",") + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}

// GenerateJSON marshals any result value as indented JSON.
func (rg *ReportGenerator) GenerateJSON(v interface{}) error {
	enc := json.NewEncoder(rg.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// GenerateSimulationReport renders one simulation result as console text.
func (rg *ReportGenerator) GenerateSimulationReport(result *domain.SimulationResult) error {
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintf(rg.w, "SIMULATION: %s %s\n", strings.ToUpper(string(result.Action.Type)), FormatCurrency(result.Action.Amount))
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintln(rg.w)
	fmt.Fprintf(rg.w, "Confidence: %s\n", result.Confidence)
	fmt.Fprintf(rg.w, "Reasoning:  %s\n", result.Reasoning)
	fmt.Fprintln(rg.w)

	rg.writeScenario("IF YOU DO", result.ScenarioIfDo)
	rg.writeScenario("IF YOU DON'T", result.ScenarioIfDont)

	v := result.ValidationResult
	fmt.Fprintln(rg.w, "VALIDATION")
	fmt.Fprintln(rg.w, strings.Repeat("-", 40))
	fmt.Fprintf(rg.w, "Passed: %t\n", v.Passed)
	for _, violation := range v.ConstraintViolations {
		fmt.Fprintf(rg.w, "  [%s] %s (current %s, threshold %s)\n",
			violation.Severity, violation.Rule,
			FormatCurrency(violation.Current), FormatCurrency(violation.Threshold))
	}
	for _, c := range v.Contradictions {
		fmt.Fprintf(rg.w, "  contradiction: %s\n", c)
	}
	for _, u := range v.UncertaintySources {
		fmt.Fprintf(rg.w, "  uncertainty: %s\n", u)
	}
	fmt.Fprintln(rg.w)
	return nil
}

func (rg *ReportGenerator) writeScenario(title string, s domain.Scenario) {
	fmt.Fprintln(rg.w, title)
	fmt.Fprintln(rg.w, strings.Repeat("-", 40))
	fmt.Fprintf(rg.w, "Checking: %s  Savings: %s  Invested: %s\n",
		FormatCurrency(s.AccountsAfter.Checking),
		FormatCurrency(s.AccountsAfter.Savings),
		FormatCurrency(s.AccountsAfter.Investments.Total()))
	for _, g := range s.GoalImpacts {
		line := fmt.Sprintf("Goal %s: +%s%%", g.GoalName, g.ProgressChangePct.String())
		if g.TimeSaved > 0 {
			line += fmt.Sprintf(", %d months sooner", g.TimeSaved)
		}
		fmt.Fprintln(rg.w, line)
	}
	for _, b := range s.BudgetImpacts {
		fmt.Fprintf(rg.w, "Budget %-16s %6s%% used  [%s]\n", b.CategoryName, b.PercentUsed.Round(1).String(), b.Status)
	}
	fmt.Fprintf(rg.w, "Liquidity: %s\n", s.LiquidityImpact)
	fmt.Fprintf(rg.w, "Risk:      %s\n", s.RiskImpact)
	for _, t := range s.TimelineChanges {
		fmt.Fprintf(rg.w, "Timeline:  %s\n", t)
	}
	fmt.Fprintln(rg.w)
}

// GenerateComparisonReport renders side-by-side results for several actions.
func (rg *ReportGenerator) GenerateComparisonReport(results []*domain.SimulationResult) error {
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintln(rg.w, "OPTION COMPARISON")
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintln(rg.w)
	for i, result := range results {
		fmt.Fprintf(rg.w, "OPTION %d: %s %s", i+1, result.Action.Type, FormatCurrency(result.Action.Amount))
		if result.Action.Category != "" {
			fmt.Fprintf(rg.w, " on %s", result.Action.Category)
		}
		if result.Action.TargetAccountID != "" {
			fmt.Fprintf(rg.w, " into %s", result.Action.TargetAccountID)
		}
		fmt.Fprintln(rg.w)
		fmt.Fprintf(rg.w, "  Confidence: %s  Guardrails passed: %t\n", result.Confidence, result.ValidationResult.Passed)
		fmt.Fprintf(rg.w, "  %s\n", result.Reasoning)
		fmt.Fprintln(rg.w)
	}
	return nil
}

// GeneratePriorityReport renders a prioritization decision.
func (rg *ReportGenerator) GeneratePriorityReport(decision feasibility.Decision) error {
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintln(rg.w, "GOAL PRIORITIZATION")
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintln(rg.w)
	fmt.Fprintf(rg.w, "Priority goal: %s (score %s)\n", decision.PriorityGoal.Name, decision.PriorityGoal.FeasibilityScore.String())
	fmt.Fprintf(rg.w, "Reason: %s\n", decision.PriorityGoal.Reason)
	fmt.Fprintln(rg.w)
	fmt.Fprintln(rg.w, "RANKING")
	fmt.Fprintln(rg.w, strings.Repeat("-", 40))
	for i, r := range decision.GoalRankings {
		line := fmt.Sprintf("%d. %-24s score %s  needs %s/mo, %d months left",
			i+1, r.GoalName, r.Score.String(), FormatCurrency(r.RequiredMonthlyContribution), r.MonthsRemaining)
		fmt.Fprintln(rg.w, line)
		if r.Bottleneck != "" {
			fmt.Fprintf(rg.w, "   bottleneck: %s\n", r.Bottleneck)
		}
	}
	fmt.Fprintln(rg.w)
	for _, realloc := range decision.CapitalReallocations {
		fmt.Fprintf(rg.w, "Suggested reallocation: %s from %s to %s\n",
			FormatCurrency(realloc.Amount), realloc.From, realloc.To)
	}
	fmt.Fprintln(rg.w)
	fmt.Fprintln(rg.w, decision.Explanation)
	return nil
}

// GenerateStabilizationReport renders a stabilization plan.
func (rg *ReportGenerator) GenerateStabilizationReport(plan stabilize.Plan) error {
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintln(rg.w, "STABILITY MODE")
	fmt.Fprintln(rg.w, strings.Repeat("=", 70))
	fmt.Fprintln(rg.w)
	fmt.Fprintf(rg.w, "Window: %s through %s\n", plan.Start.Format("2006-01-02"), plan.End.Format("2006-01-02"))
	fmt.Fprintf(rg.w, "Minimum safe buffer: %s\n", FormatCurrency(plan.MinimumSafeBuffer))
	fmt.Fprintf(rg.w, "Shortfall:           %s\n", FormatCurrency(plan.Shortfall))
	fmt.Fprintln(rg.w)
	fmt.Fprintf(rg.w, "Liquid before: %s (checking %s / savings %s)\n",
		FormatCurrency(plan.Before.TotalLiquid), FormatCurrency(plan.Before.Checking), FormatCurrency(plan.Before.Savings))
	fmt.Fprintf(rg.w, "Liquid after:  %s (checking %s / savings %s)\n",
		FormatCurrency(plan.After.TotalLiquid), FormatCurrency(plan.After.Checking), FormatCurrency(plan.After.Savings))
	fmt.Fprintln(rg.w)
	for _, a := range plan.Actions {
		fmt.Fprintf(rg.w, "- [%s] %s (%s)\n", a.Type, a.Description, FormatCurrency(a.Amount))
	}
	fmt.Fprintln(rg.w)
	fmt.Fprintln(rg.w, plan.Explanation)
	return nil
}
