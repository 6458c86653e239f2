package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
)

// Urgency bands for an upcoming expense.
const (
	UrgencyImmediate = "immediate"
	UrgencySoon      = "soon"
	UrgencyUpcoming  = "upcoming"
)

// UpcomingExpenseView is one unpaid obligation due within the lookahead
// window, annotated with urgency and the resolved category name.
type UpcomingExpenseView struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"dueDate"`
	DaysUntilDue int             `json:"daysUntilDue"`
	IsRecurring  bool            `json:"isRecurring"`
	Urgency      string          `json:"urgency"`
	CategoryName string          `json:"categoryName,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// UpcomingExpenseAnalysis totals the next 30 days of obligations and checks
// whether checking covers them.
type UpcomingExpenseAnalysis struct {
	HasUpcoming             bool                  `json:"hasUpcoming"`
	TotalDueNext30Days      decimal.Decimal       `json:"totalDueNext30Days"`
	TotalDueNext7Days       decimal.Decimal       `json:"totalDueNext7Days"`
	Expenses                []UpcomingExpenseView `json:"expenses"`
	ImmediateAttentionCount int                   `json:"immediateAttentionCount"`
	Summary                 string                `json:"summary"`
	CanAfford               bool                  `json:"canAfford"`
	Shortfall               decimal.Decimal       `json:"shortfall"`
}

// AnalyzeUpcomingExpenses filters unpaid expenses due within 30 days of now
// (overdue items included), sorts them soonest first, and reports whether the
// checking balance covers the total.
func AnalyzeUpcomingExpenses(user domain.UserProfile, now time.Time) UpcomingExpenseAnalysis {
	var views []UpcomingExpenseView
	for _, exp := range user.UpcomingExpenses {
		if exp.Status == "paid" {
			continue
		}
		days := daysUntil(now, exp.DueDate)
		if days > 30 {
			continue
		}

		urgency := UrgencyUpcoming
		switch {
		case days <= 3 || exp.Status == "overdue":
			urgency = UrgencyImmediate
		case days <= 7:
			urgency = UrgencySoon
		}

		view := UpcomingExpenseView{
			ID:           exp.ID,
			Name:         exp.Name,
			Amount:       exp.Amount,
			DueDate:      exp.DueDate,
			DaysUntilDue: days,
			IsRecurring:  exp.IsRecurring,
			Urgency:      urgency,
			Notes:        exp.Notes,
		}
		if exp.CategoryID != "" {
			if c := user.CategoryByRef(exp.CategoryID); c != nil {
				view.CategoryName = c.Name
			}
		}
		views = append(views, view)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].DaysUntilDue < views[j].DaysUntilDue
	})

	total30 := decimal.Zero
	total7 := decimal.Zero
	immediate := 0
	for _, v := range views {
		total30 = total30.Add(v.Amount)
		if v.DaysUntilDue <= 7 {
			total7 = total7.Add(v.Amount)
		}
		if v.Urgency == UrgencyImmediate {
			immediate++
		}
	}

	canAfford := user.Accounts.Checking.GreaterThanOrEqual(total30)
	shortfall := decimal.Zero
	if !canAfford {
		shortfall = total30.Sub(user.Accounts.Checking)
	}

	var summary string
	switch {
	case len(views) == 0:
		summary = "No upcoming expenses in the next 30 days. Your budget looks clear!"
	case immediate > 0:
		plural, verb := "s", "s"
		if immediate > 1 {
			verb = ""
		} else {
			plural = ""
		}
		summary = fmt.Sprintf("%d expense%s need%s immediate attention. $%s due in the next 7 days.",
			immediate, plural, verb, total7.StringFixed(2))
	default:
		summary = fmt.Sprintf("$%s in upcoming expenses over the next 30 days.", total30.StringFixed(2))
	}
	if !canAfford {
		summary += fmt.Sprintf(" Note: You may need an additional $%s to cover all expenses.", shortfall.StringFixed(2))
	}

	return UpcomingExpenseAnalysis{
		HasUpcoming:             len(views) > 0,
		TotalDueNext30Days:      total30,
		TotalDueNext7Days:       total7,
		Expenses:                views,
		ImmediateAttentionCount: immediate,
		Summary:                 summary,
		CanAfford:               canAfford,
		Shortfall:               shortfall,
	}
}

// daysUntil rounds the remaining time up to whole days; overdue dates come
// back negative.
func daysUntil(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}
