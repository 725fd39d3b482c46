package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/allowance"
	"github.com/dukewell/chorewheel/internal/model"
)

// ChildSummary pairs a child with their weekly summary for the report email.
type ChildSummary struct {
	ChildName     string
	Summary       *allowance.Summary
	TeethBrushing string // e.g. "10/14"
}

func summarySubject(week *model.WeekPeriod) string {
	return fmt.Sprintf("ChoreWheel Weekly Summary - %s to %s",
		week.StartDate.Format("Jan 02"), week.EndDate.Format("Jan 02, 2006"))
}

// summaryTotals sums earned, paid and unpaid across all children.
func summaryTotals(summaries []ChildSummary) (earned, paid, unpaid decimal.Decimal) {
	earned, paid = decimal.Zero, decimal.Zero
	for _, s := range summaries {
		if s.Summary == nil {
			continue
		}
		earned = earned.Add(s.Summary.Total)
		if s.Summary.IsPaid {
			paid = paid.Add(s.Summary.Total)
		}
	}
	return earned, paid, earned.Sub(paid)
}

func summaryText(adminName string, week *model.WeekPeriod, summaries []ChildSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ChoreWheel Weekly Summary\n")
	fmt.Fprintf(&b, "Week: %s - %s\n\n", week.StartDate.Format("January 02"), week.EndDate.Format("January 02, 2006"))
	fmt.Fprintf(&b, "Hi %s,\n\nHere's the weekly chore summary:\n\n", adminName)

	for _, s := range summaries {
		if s.Summary == nil {
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n", s.ChildName)
		fmt.Fprintf(&b, "Base Allowance: £%s\n", s.Summary.BaseAllowance.StringFixed(2))
		fmt.Fprintf(&b, "Chores Earned: £%s\n", s.Summary.ChoresEarned.StringFixed(2))
		fmt.Fprintf(&b, "Total: £%s\n", s.Summary.Total.StringFixed(2))
		fmt.Fprintf(&b, "Completion: %.1f%%\n", s.Summary.CompletionPercentage)
		fmt.Fprintf(&b, "Teeth Brushing: %s\n", s.TeethBrushing)
		fmt.Fprintf(&b, "Payment Status: %s\n\n", paymentStatus(s.Summary.IsPaid))

		if len(s.Summary.ChoreDetails) > 0 {
			b.WriteString("Chore Details:\n")
			for _, d := range s.Summary.ChoreDetails {
				fmt.Fprintf(&b, "  - %s: %d/%d (£%s)\n", d.Name, d.Completions, d.Target, d.AmountEarned.StringFixed(2))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("--\nChoreWheel - Making chores fun!\n")
	return b.String()
}

func summaryHTML(adminName string, week *model.WeekPeriod, summaries []ChildSummary) string {
	earned, paid, unpaid := summaryTotals(summaries)

	var b strings.Builder
	b.WriteString("<h2>ChoreWheel Weekly Summary</h2>")
	fmt.Fprintf(&b, "<p>Week: %s - %s</p>", week.StartDate.Format("January 02"), week.EndDate.Format("January 02, 2006"))
	fmt.Fprintf(&b, "<p>Hi %s, here's the weekly chore summary:</p>", html.EscapeString(adminName))

	for _, s := range summaries {
		if s.Summary == nil {
			continue
		}
		fmt.Fprintf(&b, "<h3>%s</h3><ul>", html.EscapeString(s.ChildName))
		fmt.Fprintf(&b, "<li>Base Allowance: £%s</li>", s.Summary.BaseAllowance.StringFixed(2))
		fmt.Fprintf(&b, "<li>Chores Earned: £%s</li>", s.Summary.ChoresEarned.StringFixed(2))
		fmt.Fprintf(&b, "<li><strong>Total: £%s</strong></li>", s.Summary.Total.StringFixed(2))
		fmt.Fprintf(&b, "<li>Completion: %.1f%%</li>", s.Summary.CompletionPercentage)
		fmt.Fprintf(&b, "<li>Teeth Brushing: %s</li>", s.TeethBrushing)
		fmt.Fprintf(&b, "<li>Payment Status: %s</li>", paymentStatus(s.Summary.IsPaid))
		b.WriteString("</ul>")
	}

	fmt.Fprintf(&b, "<p>Total earned: £%s · Paid: £%s · Unpaid: £%s</p>",
		earned.StringFixed(2), paid.StringFixed(2), unpaid.StringFixed(2))
	return b.String()
}

func paymentConfirmationText(adminName, childName string, week *model.WeekPeriod, amount decimal.Decimal, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nA payment has been recorded in ChoreWheel:\n\n", adminName)
	fmt.Fprintf(&b, "Child: %s\n", childName)
	fmt.Fprintf(&b, "Week: %s - %s\n", week.StartDate.Format("January 02"), week.EndDate.Format("January 02, 2006"))
	fmt.Fprintf(&b, "Amount: £%s\n", amount.StringFixed(2))
	fmt.Fprintf(&b, "Date: %s\n\n--\nChoreWheel\n", now.Format("January 02, 2006 at 3:04 PM"))
	return b.String()
}

func paymentStatus(paid bool) string {
	if paid {
		return "Paid"
	}
	return "Pending"
}
