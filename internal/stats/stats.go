// Package stats summarizes a group's expense history for the statistics
// view: totals, averages, top category and spender, and a per-day timeline.
package stats

import (
	"sort"
	"time"

	"vydaje/internal/core"
)

// Range selects the summarized window, counted back from "now".
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeAll   Range = "all"
)

// ParseRange maps a query parameter to a Range, defaulting to all.
func ParseRange(s string) Range {
	switch Range(s) {
	case RangeWeek, RangeMonth:
		return Range(s)
	default:
		return RangeAll
	}
}

// CategoryTotal is one slice of the per-category breakdown, sorted by
// descending total.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

// DayTotal is one point of the expense timeline. Day is in YYYY-MM-DD.
type DayTotal struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
}

// Summary aggregates the group's expenses inside the selected range.
// Incomes and settlements are excluded. All totals are in ledger units.
type Summary struct {
	Range       Range           `json:"range"`
	Count       int             `json:"count"`
	Total       int64           `json:"total"`
	Average     float64         `json:"average"`
	Categories  []CategoryTotal `json:"categories"`
	TopCategory string          `json:"top_category,omitempty"`
	TopSpender  string          `json:"top_spender,omitempty"`
	Timeline    []DayTotal      `json:"timeline"`
}

// Summarize folds the group's expense transactions inside the range into a
// Summary. Pure over the snapshot; now anchors the week/month cutoff.
func Summarize(group *core.Group, r Range, now time.Time) Summary {
	var cutoff time.Time
	switch r {
	case RangeWeek:
		cutoff = now.AddDate(0, 0, -7)
	case RangeMonth:
		cutoff = now.AddDate(0, -1, 0)
	}

	summary := Summary{Range: r}
	categoryTotals := map[string]int64{}
	spenderTotals := map[string]int64{}
	dayTotals := map[string]int64{}

	for _, tx := range group.Transactions {
		detail, ok := tx.Detail.(core.ExpenseDetail)
		if !ok {
			continue
		}
		if !cutoff.IsZero() && tx.OccurredAt.Before(cutoff) {
			continue
		}
		summary.Count++
		summary.Total += tx.LedgerAmount
		category := detail.Category
		if category == "" {
			category = "Ostatní"
		}
		categoryTotals[category] += tx.LedgerAmount
		spenderTotals[detail.Payer] += tx.LedgerAmount
		dayTotals[tx.OccurredAt.Format("2006-01-02")] += tx.LedgerAmount
	}

	if summary.Count == 0 {
		return summary
	}
	summary.Average = float64(summary.Total) / float64(summary.Count)

	summary.Categories = make([]CategoryTotal, 0, len(categoryTotals))
	for name, total := range categoryTotals {
		summary.Categories = append(summary.Categories, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		if summary.Categories[i].Total != summary.Categories[j].Total {
			return summary.Categories[i].Total > summary.Categories[j].Total
		}
		return summary.Categories[i].Category < summary.Categories[j].Category
	})
	summary.TopCategory = summary.Categories[0].Category

	summary.TopSpender = topKey(spenderTotals)

	summary.Timeline = make([]DayTotal, 0, len(dayTotals))
	for day, total := range dayTotals {
		summary.Timeline = append(summary.Timeline, DayTotal{Day: day, Total: total})
	}
	sort.Slice(summary.Timeline, func(i, j int) bool {
		return summary.Timeline[i].Day < summary.Timeline[j].Day
	})

	return summary
}

func topKey(totals map[string]int64) string {
	var top string
	var max int64
	for key, total := range totals {
		if total > max || (total == max && (top == "" || key < top)) {
			top, max = key, total
		}
	}
	return top
}
