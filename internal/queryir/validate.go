package queryir

import (
	"fmt"

	"github.com/roach88/syncmodel/internal/ir"
)

// Validate checks a query against the store schema: the table and every
// selected or filtered column must exist, and each filter value must fit
// its column.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	switch query := q.(type) {
	case nil:
		return fmt.Errorf("nil query")
	case Select:
		return validateSelect(query)
	case *Select:
		if query == nil {
			return fmt.Errorf("nil query")
		}
		return validateSelect(*query)
	default:
		return fmt.Errorf("unsupported query type: %T", q)
	}
}

func validateSelect(sel Select) error {
	table, ok := Tables[sel.From]
	if !ok {
		return fmt.Errorf("unknown table %q", sel.From)
	}
	seen := make(map[string]bool, len(sel.Fields))
	for _, f := range sel.Fields {
		if _, ok := table.Column(f); !ok {
			return fmt.Errorf("%s: unknown column %q", table.Name, f)
		}
		if seen[f] {
			return fmt.Errorf("%s: column %q selected twice", table.Name, f)
		}
		seen[f] = true
	}
	if sel.Filter == nil {
		return nil
	}
	return validatePredicate(table, sel.Filter)
}

func validatePredicate(table Table, p Predicate) error {
	switch pred := p.(type) {
	case Equals:
		return validateEquals(table, pred)
	case *Equals:
		return validateEquals(table, *pred)
	case And:
		return validateAnd(table, pred)
	case *And:
		return validateAnd(table, *pred)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateAnd(table Table, and And) error {
	for _, sub := range and.Predicates {
		if err := validatePredicate(table, sub); err != nil {
			return err
		}
	}
	return nil
}

func validateEquals(table Table, eq Equals) error {
	col, ok := table.Column(eq.Field)
	if !ok {
		return fmt.Errorf("%s: unknown column %q", table.Name, eq.Field)
	}
	switch eq.Value.(type) {
	case ir.IRString:
		if col.Kind != KindText {
			return fmt.Errorf("%s.%s: string value for integer column", table.Name, col.Name)
		}
	case ir.IRInt, ir.IRBool:
		if col.Kind != KindInt {
			return fmt.Errorf("%s.%s: integer value for text column", table.Name, col.Name)
		}
	case nil, ir.IRNull:
		return fmt.Errorf("%s.%s: compared to NULL; columns are NOT NULL", table.Name, col.Name)
	default:
		return fmt.Errorf("%s.%s: unsupported value type %T", table.Name, col.Name, eq.Value)
	}
	return nil
}
