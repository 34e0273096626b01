package views

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"booktrack/internal/projects"
)

// DefaultClient labels titles no classification rule claims.
const DefaultClient = "PRH"

// clientRules is an ordered prefix table: the first matching prefix wins,
// so narrow prefixes must sit above broader ones (PRHA#: above PRH).
var clientRules = []struct {
	prefix string
	label  string
}{
	{"AUDIBLE:", "AUDIBLE"},
	{"PODIUM:", "PODIUM"},
	{"CURATED", "CURATED"},
	{"HAY HOUSE:", "HAY HOUSE"},
	{"ONS:", "ONS"},
	{"ANATOLE", "ANATOLE"},
	{"BLOOMSBURY", "BLOOMSBURY"},
	{"PRHA#:", DefaultClient},
	{"PRH", DefaultClient},
	{"YA", DefaultClient},
}

// Classify maps a project title to its client label.
func Classify(title string) string {
	upper := strings.ToUpper(strings.TrimSpace(title))
	for _, rule := range clientRules {
		if strings.HasPrefix(upper, rule.prefix) {
			return rule.label
		}
	}
	return DefaultClient
}

// ClientGroup is one client's slice of the project list.
type ClientGroup struct {
	Client   string
	Projects []*projects.Project
}

// GroupByClient buckets projects by client label. The default client group
// comes first; the remaining groups are alphabetical. Projects keep their
// incoming order inside each group.
func GroupByClient(list []*projects.Project) []ClientGroup {
	buckets := make(map[string][]*projects.Project)
	for _, project := range list {
		client := Classify(project.Title)
		buckets[client] = append(buckets[client], project)
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		if label != DefaultClient {
			labels = append(labels, label)
		}
	}
	coll := collate.New(language.English)
	sort.Slice(labels, func(i, j int) bool {
		return coll.CompareString(labels[i], labels[j]) < 0
	})

	groups := make([]ClientGroup, 0, len(buckets))
	if defaultProjects, ok := buckets[DefaultClient]; ok {
		groups = append(groups, ClientGroup{Client: DefaultClient, Projects: defaultProjects})
	}
	for _, label := range labels {
		groups = append(groups, ClientGroup{Client: label, Projects: buckets[label]})
	}
	return groups
}
