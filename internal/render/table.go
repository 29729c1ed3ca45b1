package render

import (
	"html/template"
	"slices"
	"strings"
	"sync"
)

// Row is one table row. ID is the row's data-id: the link it belongs to.
type Row struct {
	ID    string
	Cells []string
	// HTML is the escaped <tr> markup for the row.
	HTML template.HTML

	onDelete func(id string)
}

// Delete fires the row's delete affordance. Rows without one do nothing.
func (r Row) Delete() {
	if r.onDelete != nil {
		r.onDelete(r.ID)
	}
}

// CanDelete reports whether the row carries a delete affordance.
func (r Row) CanDelete() bool { return r.onDelete != nil }

// Snapshot is a consistent copy of the table at one point in time.
type Snapshot struct {
	Columns      []string
	Rows         []Row
	Status       string
	PrevDisabled bool
	NextDisabled bool
}

// Table is the in-memory stand-in for the dashboard's <table>: a body of
// rows keyed by data-id, a status line and the pager buttons' state.
// Writers are the renderer and the view controllers; readers are front ends.
type Table struct {
	mu           sync.RWMutex
	columns      []string
	rows         []Row
	status       string
	prevDisabled bool
	nextDisabled bool

	// recount rebuilds the status line from the row count after a local
	// removal. Nil for paged tables, whose status comes from the server.
	recount   func(rows int) string
	observers []func(Snapshot)
}

func NewTable() *Table {
	return &Table{prevDisabled: true, nextDisabled: true}
}

// OnChange registers fn to receive a snapshot after every mutation.
// fn runs on the mutating goroutine, outside the table lock.
func (t *Table) OnChange(fn func(Snapshot)) {
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() Snapshot {
	rows := make([]Row, len(t.rows))
	copy(rows, t.rows)
	return Snapshot{
		Columns:      append([]string(nil), t.columns...),
		Rows:         rows,
		Status:       t.status,
		PrevDisabled: t.prevDisabled,
		NextDisabled: t.nextDisabled,
	}
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Row returns the row with the given data-id.
func (t *Table) Row(id string) (Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

// RemoveRow drops every row whose data-id is id and reports whether any was found.
func (t *Table) RemoveRow(id string) bool {
	removed := false
	t.update(func() {
		kept := t.rows[:0:0]
		for _, r := range t.rows {
			if r.ID == id {
				removed = true
				continue
			}
			kept = append(kept, r)
		}
		t.rows = kept
		if removed && t.recount != nil {
			t.status = t.recount(len(t.rows))
		}
	})
	return removed
}

// HTML renders the table body as <tbody> markup.
func (t *Table) HTML() template.HTML {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var b strings.Builder
	b.WriteString("<tbody>")
	for _, r := range t.rows {
		b.WriteString(string(r.HTML))
	}
	b.WriteString("</tbody>")
	return template.HTML(b.String())
}

func (t *Table) replace(columns []string, rows []Row, status string, recount func(int) string, prevDisabled, nextDisabled bool) {
	t.update(func() {
		t.columns = columns
		t.rows = rows
		t.status = status
		t.recount = recount
		t.prevDisabled = prevDisabled
		t.nextDisabled = nextDisabled
	})
}

func (t *Table) update(fn func()) {
	t.mu.Lock()
	fn()
	snap := t.snapshotLocked()
	observers := slices.Clone(t.observers)
	t.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}
