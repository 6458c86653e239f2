package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pfsim/pfsim/internal/audit"
	"github.com/pfsim/pfsim/internal/config"
	"github.com/pfsim/pfsim/internal/domain"
	"github.com/pfsim/pfsim/internal/feasibility"
	"github.com/pfsim/pfsim/internal/insights"
	"github.com/pfsim/pfsim/internal/output"
	"github.com/pfsim/pfsim/internal/recommend"
	"github.com/pfsim/pfsim/internal/simulation"
	"github.com/pfsim/pfsim/internal/stabilize"
	"github.com/pfsim/pfsim/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var log = logrus.New()

var (
	flagFormat  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pfsim",
	Short: "Personal finance decision simulator",
	Long:  "Deterministic what-if simulation, goal prioritization, and stability planning for personal finances",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if flagVerbose {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.WarnLevel)
		}
	},
}

func loadProfile(path string) (*config.Configuration, error) {
	parser := config.NewInputParser()
	cfg, err := parser.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"user":    cfg.Profile.Name,
		"goals":   len(cfg.Profile.Goals),
		"actions": len(cfg.Actions),
	}).Debug("profile loaded")
	return cfg, nil
}

func render(v interface{}, console func(*output.ReportGenerator) error) error {
	rg := output.NewReportGenerator(os.Stdout)
	if flagFormat == "json" {
		return rg.GenerateJSON(v)
	}
	return console(rg)
}

func simulateCmd() *cobra.Command {
	var (
		actionType string
		amount     float64
		goalID     string
		account    string
		category   string
		horizon    int
	)
	cmd := &cobra.Command{
		Use:   "simulate [profile-file]",
		Short: "Simulate a save, invest, or spend action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			engine := simulation.NewEngine()
			amt := decimal.NewFromFloat(amount)

			var result *domain.SimulationResult
			switch domain.ActionType(actionType) {
			case domain.ActionSave:
				result = engine.SimulateSave(cfg.Profile, amt, goalID)
			case domain.ActionInvest:
				result = engine.SimulateInvest(cfg.Profile, amt, account, goalID, horizon)
			case domain.ActionSpend:
				result = engine.SimulateSpend(cfg.Profile, amt, category)
			default:
				return fmt.Errorf("unknown action type %q: must be save, invest, or spend", actionType)
			}
			return render(result, func(rg *output.ReportGenerator) error {
				return rg.GenerateSimulationReport(result)
			})
		},
	}
	cmd.Flags().StringVar(&actionType, "action", "save", "Action type: save, invest, or spend")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Action amount in dollars")
	cmd.Flags().StringVar(&goalID, "goal", "", "Goal id to credit (save/invest)")
	cmd.Flags().StringVar(&account, "account", "taxable", "Investment slot: taxable, rothIRA, or traditional401k")
	cmd.Flags().StringVar(&category, "category", "Miscellaneous", "Spending category id or name")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "Investment horizon in years (default 5)")
	return cmd
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [profile-file]",
		Short: "Compare the candidate actions listed in the profile file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			if len(cfg.Actions) == 0 {
				return fmt.Errorf("no actions listed in %s; add an actions section", args[0])
			}
			engine := simulation.NewEngine()
			results, err := engine.CompareOptions(cfg.Profile, cfg.Actions)
			if err != nil {
				return err
			}
			return render(results, func(rg *output.ReportGenerator) error {
				return rg.GenerateComparisonReport(results)
			})
		},
	}
}

func applyCmd() *cobra.Command {
	var (
		actionType string
		amount     float64
		goalID     string
		account    string
		category   string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "apply [profile-file]",
		Short: "Apply an action to the profile and print the updated state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			action := domain.FinancialAction{
				Type:            domain.ActionType(actionType),
				Amount:          decimal.NewFromFloat(amount),
				TargetAccountID: account,
				GoalID:          goalID,
				Category:        category,
			}
			if action.Type == domain.ActionSave {
				action.TargetAccountID = "savings"
			}

			engine := simulation.NewEngine()
			states := store.NewUserStateStore()
			states.Set(cfg.Profile.ID, cfg.Profile)
			auditLog := audit.NewLog()

			updated, result, err := engine.ApplyAction(cfg.Profile, action)
			if err != nil {
				return err
			}
			states.Set(updated.ID, updated)
			record := auditLog.Append(updated.ID, action, cfg.Profile, updated)
			log.WithField("record", record.ID).Debug("action applied")

			if out != "" {
				if err := writeProfile(out, updated); err != nil {
					return err
				}
				fmt.Printf("Updated profile written to %s\n", out)
			}
			return render(result, func(rg *output.ReportGenerator) error {
				return rg.GenerateSimulationReport(result)
			})
		},
	}
	cmd.Flags().StringVar(&actionType, "action", "save", "Action type: save, invest, or spend")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Action amount in dollars")
	cmd.Flags().StringVar(&goalID, "goal", "", "Goal id to credit (save/invest)")
	cmd.Flags().StringVar(&account, "account", "taxable", "Investment slot for invest actions")
	cmd.Flags().StringVar(&category, "category", "", "Spending category for spend actions")
	cmd.Flags().StringVar(&out, "out", "", "Write the updated profile to this YAML file")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		undo bool
		out  string
	)
	cmd := &cobra.Command{
		Use:   "history [profile-file]",
		Short: "Apply the profile's candidate actions in sequence and show the audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			if len(cfg.Actions) == 0 {
				return fmt.Errorf("no actions listed in %s; add an actions section", args[0])
			}

			engine := simulation.NewEngine()
			states := store.NewUserStateStore()
			states.Set(cfg.Profile.ID, cfg.Profile)
			auditLog := audit.NewLog()

			current := cfg.Profile
			for i, action := range cfg.Actions {
				updated, _, err := engine.ApplyAction(current, action)
				if err != nil {
					return fmt.Errorf("action %d: %w", i, err)
				}
				record := auditLog.Append(current.ID, action, current, updated)
				states.Set(updated.ID, updated)
				log.WithField("record", record.ID).Debug("action applied")
				current = updated
			}

			if undo {
				last := auditLog.LastRecord(current.ID)
				if last == nil {
					return fmt.Errorf("nothing to undo")
				}
				fmt.Printf("Undid %s %s (record %s)\n",
					last.Action.Type, output.FormatCurrency(last.Action.Amount), last.ID)
				current = last.PreviousState
				auditLog.RemoveLastRecord(current.ID)
				states.Set(current.ID, current)
			}

			if out != "" {
				if err := writeProfile(out, current); err != nil {
					return err
				}
				fmt.Printf("Updated profile written to %s\n", out)
			}

			records := auditLog.History(current.ID, 0)
			return render(records, func(rg *output.ReportGenerator) error {
				if len(records) == 0 {
					fmt.Println("No actions in history.")
					return nil
				}
				fmt.Printf("History for %s (newest first):\n", cfg.Profile.Name)
				for _, r := range records {
					fmt.Printf("  %s  %s %s  checking %s -> %s\n",
						r.ID, r.Action.Type, output.FormatCurrency(r.Action.Amount),
						output.FormatCurrency(r.PreviousState.Accounts.Checking),
						output.FormatCurrency(r.NewState.Accounts.Checking))
				}
				fmt.Printf("Final balances: checking %s, savings %s\n",
					output.FormatCurrency(current.Accounts.Checking),
					output.FormatCurrency(current.Accounts.Savings))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Undo the most recent action before printing the history")
	cmd.Flags().StringVar(&out, "out", "", "Write the resulting profile to this YAML file")
	return cmd
}

func prioritizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prioritize [profile-file]",
		Short: "Rank goals by feasibility and select a priority goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			decision, err := feasibility.PrioritizeMostRealisticGoal(cfg.Profile, feasibility.Options{})
			if err != nil {
				return err
			}
			return render(decision, func(rg *output.ReportGenerator) error {
				return rg.GeneratePriorityReport(decision)
			})
		},
	}
}

func stabilizeCmd() *cobra.Command {
	var cancel bool
	cmd := &cobra.Command{
		Use:   "stabilize [profile-file]",
		Short: "Activate (or cancel) 30-day financial stability mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			if cancel {
				if !cfg.Profile.StabilizationMode {
					fmt.Println("Stability mode is not active; nothing to cancel.")
					return nil
				}
				updated := stabilize.Cancel(cfg.Profile, stabilize.Options{})
				return render(updated, func(rg *output.ReportGenerator) error {
					fmt.Println("Stability mode canceled.")
					return nil
				})
			}
			plan := stabilize.Run(cfg.Profile, stabilize.Options{})
			return render(plan, func(rg *output.ReportGenerator) error {
				return rg.GenerateStabilizationReport(plan)
			})
		},
	}
	cmd.Flags().BoolVar(&cancel, "cancel", false, "Cancel an active stability mode instead of starting one")
	return cmd
}

func recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend [profile-file]",
		Short: "Generate recommended actions and a financial health report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			report := recommend.AnalyzeHealth(cfg.Profile, now)
			return render(report, func(rg *output.ReportGenerator) error {
				fmt.Printf("Overall health: %s (surplus %s/mo, emergency fund %s)\n\n",
					report.OverallHealth, output.FormatCurrency(report.MonthlySurplus), report.EmergencyFundStatus)
				for i, rec := range report.Recommendations {
					fmt.Printf("%d. %s %s", i+1, rec.Action.Type, output.FormatCurrency(rec.Action.Amount))
					if rec.Action.GoalID != "" {
						fmt.Printf(" toward goal %s", rec.Action.GoalID)
					}
					fmt.Printf("\n   %s\n", rec.Reasoning)
				}
				if len(report.Recommendations) == 0 {
					fmt.Println("No recommendations; surplus is too small to allocate safely.")
				}
				return nil
			})
		},
	}
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights [profile-file]",
		Short: "Show budget, upcoming-expense, and risk insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			budget := insights.AnalyzeBudget(cfg.Profile, now)
			upcoming := insights.AnalyzeUpcomingExpenses(cfg.Profile, now)
			risk := insights.RiskScore(cfg.Profile)
			combined := struct {
				Budget   insights.BudgetAnalysis          `json:"budget"`
				Upcoming insights.UpcomingExpenseAnalysis `json:"upcoming"`
				Risk     insights.RiskScoreResult         `json:"risk"`
			}{budget, upcoming, risk}

			return render(combined, func(rg *output.ReportGenerator) error {
				fmt.Println(budget.SummaryMessage())
				fmt.Println(upcoming.Summary)
				fmt.Printf("Risk score: %d/100 (volatility %d, emergency %d, fixed costs %d, cash flow %d)\n",
					risk.Overall, risk.Breakdown.InvestmentVolatility, risk.Breakdown.EmergencyBuffer,
					risk.Breakdown.FixedCostExposure, risk.Breakdown.CashFlowStability)
				if reminder := insights.InvestmentReminder(cfg.Profile, now); reminder != nil {
					fmt.Println(reminder.Message)
				}
				return nil
			})
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [profile-file]",
		Short: "Validate a profile file without running anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("OK: profile %q with %d goals, %d categories, %d candidate actions\n",
				cfg.Profile.Name, len(cfg.Profile.Goals), len(cfg.Profile.SpendingCategories), len(cfg.Actions))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "pfsim %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.Main.Path)
			}
		},
	}
}

// writeProfile saves an updated profile back to disk as YAML.
func writeProfile(path string, profile domain.UserProfile) error {
	data, err := yaml.Marshal(config.Configuration{Profile: profile})
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "console", "Output format: console or json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		simulateCmd(),
		compareCmd(),
		applyCmd(),
		historyCmd(),
		prioritizeCmd(),
		stabilizeCmd(),
		recommendCmd(),
		insightsCmd(),
		validateCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
