package productivity

import "strings"

// Cell is one editable grid position: the hour text exactly as typed plus
// the note. RawHours keeps in-progress input ("3.", ".") verbatim until a
// reconcile replaces it with the stored value.
type Cell struct {
	RawHours string
	Note     string
}

func (c Cell) empty() bool {
	return strings.TrimSpace(c.RawHours) == "" && strings.TrimSpace(c.Note) == ""
}

// Write is the remote-store decision produced by a buffer edit: either an
// upsert of the parsed cell state or a deletion of the row.
type Write struct {
	Person string
	Date   string
	Hours  float64
	Note   string
	Delete bool
}

// Buffer stages pending hour and note edits for one project card, keyed by
// person then canonical date string. It is a plain data structure with no
// locking; a card is only ever edited from one goroutine.
type Buffer struct {
	cells   map[string]map[string]Cell
	focused bool
}

// NewBuffer returns an empty edit buffer.
func NewBuffer() *Buffer {
	return &Buffer{cells: make(map[string]map[string]Cell)}
}

// SetFocused marks whether an edit is in progress inside the card. While
// focused, Reconcile leaves the buffer alone so a background refresh cannot
// clobber an in-flight keystroke.
func (b *Buffer) SetFocused(focused bool) {
	b.focused = focused
}

// Focused reports whether an edit is in progress.
func (b *Buffer) Focused() bool {
	return b.focused
}

// Reconcile rebuilds the buffer from authoritative store entries. The
// rebuild is skipped entirely while the buffer is focused; the return value
// reports whether it happened.
func (b *Buffer) Reconcile(entries []Entry) bool {
	if b.focused {
		return false
	}
	b.cells = make(map[string]map[string]Cell, len(entries))
	for _, entry := range entries {
		cell := Cell{Note: entry.Note}
		if entry.Hours != 0 {
			cell.RawHours = formatHours(entry.Hours)
		}
		b.put(entry.Person, entry.Date, cell)
	}
	return true
}

// SetHours records hour text for a cell and returns the write the remote
// store should receive for that key.
func (b *Buffer) SetHours(person, date, text string) Write {
	cell := b.cell(person, date)
	cell.RawHours = text
	b.put(person, date, cell)
	return b.decide(person, date, cell)
}

// SetNote records note text for a cell and returns the resulting write.
func (b *Buffer) SetNote(person, date, note string) Write {
	cell := b.cell(person, date)
	cell.Note = note
	b.put(person, date, cell)
	return b.decide(person, date, cell)
}

// decide applies the write policy: positive hours or a non-empty note mean
// upsert, anything else means delete. Unparseable hour text counts as zero
// for the policy even though the cell still shows what was typed.
func (b *Buffer) decide(person, date string, cell Cell) Write {
	hours := CoerceHours(cell.RawHours)
	note := strings.TrimSpace(cell.Note)
	if hours > 0 || note != "" {
		return Write{Person: person, Date: date, Hours: hours, Note: note}
	}
	return Write{Person: person, Date: date, Delete: true}
}

// Cell returns the staged cell for a key, if present.
func (b *Buffer) Cell(person, date string) (Cell, bool) {
	row, ok := b.cells[person]
	if !ok {
		return Cell{}, false
	}
	cell, ok := row[date]
	return cell, ok
}

// RowTotal sums the parsed hours for one person across the given dates.
// Cells that fail to parse contribute zero.
func (b *Buffer) RowTotal(person string, dates []string) float64 {
	row := b.cells[person]
	var total float64
	for _, date := range dates {
		total += CoerceHours(row[date].RawHours)
	}
	return total
}

// ClearRow drops all staged cells for one person, mirroring a bulk delete
// of that person's entries for the displayed week.
func (b *Buffer) ClearRow(person string) {
	delete(b.cells, person)
}

// People returns the person names present in the buffer, in map order.
func (b *Buffer) People() []string {
	people := make([]string, 0, len(b.cells))
	for person := range b.cells {
		people = append(people, person)
	}
	return people
}

func (b *Buffer) cell(person, date string) Cell {
	if row, ok := b.cells[person]; ok {
		return row[date]
	}
	return Cell{}
}

func (b *Buffer) put(person, date string, cell Cell) {
	row, ok := b.cells[person]
	if !ok {
		row = make(map[string]Cell)
		b.cells[person] = row
	}
	if cell.empty() {
		delete(row, date)
		if len(row) == 0 {
			delete(b.cells, person)
		}
		return
	}
	row[date] = cell
}
