// Package lifecycle defines the status state machines for job postings and
// job applications.
//
// A Table is built once from a Definition and is read-only afterwards, so a
// single instance is shared by every request handler without locking. Lookups
// are keyed by (status, action); a miss is always "no transition defined",
// whether the status or the action is unknown.
package lifecycle

import (
	"fmt"
	"sort"
)

// Status is a lifecycle stage of one entity kind.
type Status string

// Action is a named trigger requesting a status change. Action tokens are
// scoped to one table: the same token may mean different things for jobs and
// applications.
type Action string

// Edge is one (from, action) → to entry.
type Edge struct {
	From   Status
	Action Action
	To     Status
}

// Definition is the declarative input to NewTable.
type Definition struct {
	Entity   string
	Initial  Status
	Statuses []Status
	Terminal []Status
	Edges    []Edge
}

// Table is an immutable (status, action) → status partial function.
type Table struct {
	entity   string
	initial  Status
	statuses []Status
	known    map[Status]struct{}
	terminal map[Status]struct{}
	next     map[Status]map[Action]Status
}

// NewTable validates def and builds a Table.
//
// Terminality is declared, not inferred: an edge leaving a terminal status is
// rejected, and so is a non-terminal status without any outgoing edge.
func NewTable(def Definition) (*Table, error) {
	t := &Table{
		entity:   def.Entity,
		initial:  def.Initial,
		statuses: append([]Status(nil), def.Statuses...),
		known:    make(map[Status]struct{}, len(def.Statuses)),
		terminal: make(map[Status]struct{}, len(def.Terminal)),
		next:     make(map[Status]map[Action]Status, len(def.Statuses)),
	}

	for _, s := range def.Statuses {
		if _, dup := t.known[s]; dup {
			return nil, fmt.Errorf("%s: status %q declared twice", def.Entity, s)
		}
		t.known[s] = struct{}{}
	}
	for _, s := range def.Terminal {
		if _, ok := t.known[s]; !ok {
			return nil, fmt.Errorf("%s: terminal status %q is not in the vocabulary", def.Entity, s)
		}
		t.terminal[s] = struct{}{}
	}
	if _, ok := t.known[def.Initial]; !ok {
		return nil, fmt.Errorf("%s: initial status %q is not in the vocabulary", def.Entity, def.Initial)
	}
	if _, ok := t.terminal[def.Initial]; ok {
		return nil, fmt.Errorf("%s: initial status %q is terminal", def.Entity, def.Initial)
	}

	for _, e := range def.Edges {
		if _, ok := t.known[e.From]; !ok {
			return nil, fmt.Errorf("%s: edge %s/%s leaves unknown status", def.Entity, e.From, e.Action)
		}
		if _, ok := t.known[e.To]; !ok {
			return nil, fmt.Errorf("%s: edge %s/%s enters unknown status %q", def.Entity, e.From, e.Action, e.To)
		}
		if _, ok := t.terminal[e.From]; ok {
			return nil, fmt.Errorf("%s: edge %s/%s leaves terminal status", def.Entity, e.From, e.Action)
		}
		if e.Action == "" {
			return nil, fmt.Errorf("%s: edge from %s has an empty action", def.Entity, e.From)
		}
		row, ok := t.next[e.From]
		if !ok {
			row = make(map[Action]Status)
			t.next[e.From] = row
		}
		if _, dup := row[e.Action]; dup {
			return nil, fmt.Errorf("%s: duplicate edge %s/%s", def.Entity, e.From, e.Action)
		}
		row[e.Action] = e.To
	}

	for _, s := range t.statuses {
		if _, ok := t.terminal[s]; ok {
			continue
		}
		if len(t.next[s]) == 0 {
			return nil, fmt.Errorf("%s: non-terminal status %q has no outgoing transitions", def.Entity, s)
		}
	}

	return t, nil
}

// MustTable is NewTable for package-level tables; it panics on an invalid
// definition so a broken table never reaches a running process.
func MustTable(def Definition) *Table {
	t, err := NewTable(def)
	if err != nil {
		panic("lifecycle: " + err.Error())
	}
	return t
}

// Entity returns the entity kind the table governs ("job", "application").
func (t *Table) Entity() string { return t.entity }

// Initial returns the status every new entity starts in.
func (t *Table) Initial() Status { return t.initial }

// Statuses returns the vocabulary in declaration order.
func (t *Table) Statuses() []Status { return append([]Status(nil), t.statuses...) }

// Has reports whether s belongs to the vocabulary.
func (t *Table) Has(s Status) bool {
	_, ok := t.known[s]
	return ok
}

// IsTerminal reports whether s is a declared terminal status.
func (t *Table) IsTerminal(s Status) bool {
	_, ok := t.terminal[s]
	return ok
}

// Lookup returns the next status for (s, a) and whether an entry exists.
func (t *Table) Lookup(s Status, a Action) (Status, bool) {
	row, ok := t.next[s]
	if !ok {
		return "", false
	}
	to, ok := row[a]
	return to, ok
}

// Actions lists the actions accepted in status s, sorted. Terminal and
// unknown statuses yield an empty slice.
func (t *Table) Actions(s Status) []Action {
	row := t.next[s]
	out := make([]Action, 0, len(row))
	for a := range row {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
