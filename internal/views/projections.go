package views

import (
	"sort"

	"booktrack/internal/personnel"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
)

// SortByDueDate orders projects by ascending due date with missing dates
// last, breaking ties by title. The input slice is not modified.
func SortByDueDate(list []*projects.Project) []*projects.Project {
	if len(list) == 0 {
		return nil
	}
	sorted := make([]*projects.Project, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.HasDueDate() && !b.HasDueDate():
			return true
		case !a.HasDueDate() && b.HasDueDate():
			return false
		case a.DueDate != b.DueDate:
			return a.DueDate < b.DueDate
		default:
			return a.Title < b.Title
		}
	})
	return sorted
}

// ForEditor returns the active projects assigned to the named editor,
// matched forgivingly against the canonical roster.
func ForEditor(list []*projects.Project, person string, roster personnel.Roster) []*projects.Project {
	return filterAssigned(list, person, roster.Editors, func(p *projects.Project) string { return p.Editor })
}

// ForQC returns the active projects assigned to the named QC reviewer.
func ForQC(list []*projects.Project, person string, roster personnel.Roster) []*projects.Project {
	return filterAssigned(list, person, roster.QC, func(p *projects.Project) string { return p.QC })
}

func filterAssigned(list []*projects.Project, person string, canonical []string, assigned func(*projects.Project) string) []*projects.Project {
	wanted, ok := personnel.Resolve(person, canonical)
	if !ok {
		wanted = person
	}
	var matched []*projects.Project
	for _, project := range list {
		if !project.Active() {
			continue
		}
		name := assigned(project)
		if name == "" {
			continue
		}
		resolved, ok := personnel.Resolve(name, canonical)
		if !ok {
			resolved = name
		}
		if personnel.Matches(resolved, wanted) {
			matched = append(matched, project)
		}
	}
	return SortByDueDate(matched)
}

// Row is one project prepared for rendering: client label, the effective
// total edited, and the formatted what's-left figure. Short is the
// trimmed rendition for tight grid columns.
type Row struct {
	Project     *projects.Project
	Client      string
	TotalEdited float64
	WhatsLeft   float64
	Display     string
	Short       string
}

// BuildRows decorates projects with aggregation-driven figures. When logs
// exist for a project they supersede its manually tracked total.
func BuildRows(list []*projects.Project, logs []productivity.Entry, editors []string) []Row {
	rows := make([]Row, 0, len(list))
	for _, project := range list {
		total := EffectiveTotalEdited(project, logs, editors)
		left := productivity.WhatsLeft(project.EstimatedRunTime, total)
		rows = append(rows, Row{
			Project:     project,
			Client:      Classify(project.Title),
			TotalEdited: total,
			WhatsLeft:   left,
			Display:     productivity.FormatWhatsLeft(left),
			Short:       productivity.FormatWhatsLeftTrimmed(left),
		})
	}
	return rows
}

// EffectiveTotalEdited prefers the aggregated editor-log total and falls
// back to the manually tracked figure when no logs exist for the project.
func EffectiveTotalEdited(project *projects.Project, logs []productivity.Entry, editors []string) float64 {
	for _, entry := range logs {
		if entry.ProjectID == project.ID {
			return productivity.TotalEdited(logs, project.ID, editors)
		}
	}
	return project.TotalEdited
}
