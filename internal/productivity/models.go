package productivity

import "strings"

// Category tags an editor log entry with its billing mode. QC entries carry
// no category.
type Category string

const (
	CategoryNone  Category = ""
	CategoryPunch Category = "P"
	CategoryRoll  Category = "R"
)

// Key uniquely identifies a log entry. At most one entry exists per key.
type Key struct {
	ProjectID int64
	Person    string
	Date      string
}

// Entry is one productivity log row: hours worked by one person on one
// project on one day. Date is the canonical YYYY-MM-DD string.
type Entry struct {
	ProjectID int64
	Person    string
	Date      string
	Hours     float64
	Note      string
	Category  Category
}

// Key returns the natural key of the entry.
func (e Entry) Key() Key {
	return Key{ProjectID: e.ProjectID, Person: e.Person, Date: e.Date}
}

// Empty reports whether the entry carries no information. Empty entries are
// treated as non-existent and deleted on write.
func (e Entry) Empty() bool {
	return e.Hours <= 0 && strings.TrimSpace(e.Note) == ""
}
