package queryir

import "github.com/roach88/syncmodel/internal/ir"

// Query is a read over the store.
type Query interface {
	queryNode()
}

// Predicate is a row filter.
type Predicate interface {
	predicateNode()
}

// Select reads the rows of From that match Filter.
//
//	SELECT <fields> FROM <from> WHERE <filter> ORDER BY <table order>
type Select struct {
	From   string    // Table name ("runs" or "steps")
	Filter Predicate // nil matches every row
	Fields []string  // nil selects every column in schema order
}

func (Select) queryNode() {}

// Equals matches rows whose Field equals Value.
//
// A bool value matches an integer column holding 0 or 1.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// And matches rows that satisfy every predicate. An empty And matches
// every row.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where builds the conjunction of equality filters on fields, in the order
// given. Fields with a nil value are left out.
func Where(pairs ...Equals) Predicate {
	var preds []Predicate
	for _, p := range pairs {
		if p.Value != nil {
			preds = append(preds, p)
		}
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}
