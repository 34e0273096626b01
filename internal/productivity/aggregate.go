package productivity

import (
	"fmt"
	"sort"
	"strings"

	"booktrack/internal/personnel"
	"booktrack/internal/workweek"
)

// ProjectWindowTotal sums hours for one project across the inclusive
// [from, to] date window.
func ProjectWindowTotal(entries []Entry, projectID int64, from, to string) float64 {
	var total float64
	for _, entry := range entries {
		if entry.ProjectID != projectID {
			continue
		}
		if workweek.InWindow(entry.Date, from, to) {
			total += entry.Hours
		}
	}
	return total
}

// PersonWindowTotal sums hours logged by one person across the window.
// Logged names are matched forgivingly against the canonical list so
// spelling drift still credits person.
func PersonWindowTotal(entries []Entry, person string, canonical []string, from, to string) float64 {
	var total float64
	for _, entry := range entries {
		if !workweek.InWindow(entry.Date, from, to) {
			continue
		}
		if creditName(entry.Person, canonical) == person {
			total += entry.Hours
		}
	}
	return total
}

// ProjectBreakdown sums hours per contributing person for one project
// across all history, crediting canonical names. The result backs the
// per-editor tooltip and the derived Total Edited figure.
func ProjectBreakdown(entries []Entry, projectID int64, canonical []string) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, entry := range entries {
		if entry.ProjectID != projectID {
			continue
		}
		breakdown[creditName(entry.Person, canonical)] += entry.Hours
	}
	return breakdown
}

// TotalEdited derives a project's edited-hours figure as the sum of its
// per-person breakdown. When logs exist this supersedes any manually
// entered total.
func TotalEdited(entries []Entry, projectID int64, canonical []string) float64 {
	var total float64
	for _, hours := range ProjectBreakdown(entries, projectID, canonical) {
		total += hours
	}
	return total
}

// PersonSummary is one row of the team-wide report.
type PersonSummary struct {
	Name  string
	Total float64
	Punch float64
	Roll  float64
}

// TeamSummary totals hours per known person inside the window, split into
// punch and roll when the entry carries a category. Every person in people
// appears, zero-hour rows included, in list order.
func TeamSummary(entries []Entry, people []string, from, to string) []PersonSummary {
	index := make(map[string]int, len(people))
	summaries := make([]PersonSummary, len(people))
	for i, name := range people {
		index[name] = i
		summaries[i] = PersonSummary{Name: name}
	}
	for _, entry := range entries {
		if !workweek.InWindow(entry.Date, from, to) {
			continue
		}
		i, ok := index[creditName(entry.Person, people)]
		if !ok {
			continue
		}
		summaries[i].Total += entry.Hours
		switch entry.Category {
		case CategoryPunch:
			summaries[i].Punch += entry.Hours
		case CategoryRoll:
			summaries[i].Roll += entry.Hours
		}
	}
	return summaries
}

// Contributors lists the distinct credited names for a project, sorted.
func Contributors(entries []Entry, projectID int64, canonical []string) []string {
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.ProjectID != projectID {
			continue
		}
		seen[creditName(entry.Person, canonical)] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WhatsLeft is estimated run time minus total edited hours. Over-budget
// projects go negative; the value is never clamped.
func WhatsLeft(estimatedRunTime, totalEdited float64) float64 {
	return estimatedRunTime - totalEdited
}

// FormatWhatsLeft renders a what's-left value with two decimals, sign
// preserved: 10 minus 12.5 renders as "-2.50".
func FormatWhatsLeft(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

// FormatWhatsLeftTrimmed is the variant with trailing zeros stripped, used
// where grid space is tight.
func FormatWhatsLeftTrimmed(value float64) string {
	formatted := FormatWhatsLeft(value)
	formatted = strings.TrimRight(formatted, "0")
	return strings.TrimRight(formatted, ".")
}

func creditName(raw string, canonical []string) string {
	resolved, _ := personnel.Resolve(raw, canonical)
	return resolved
}
