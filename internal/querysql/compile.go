// Package querysql compiles queryir queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/queryir"
)

// Compile converts a query to SQL and its parameters.
//
// Every query is validated first and ends in the table's ORDER BY, so two
// reads of the same rows return them in the same order. Values are always
// bound as parameters, never interpolated.
func Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	}
	table := queryir.Tables[sel.From]

	fields := sel.Fields
	if len(fields) == 0 {
		fields = table.ColumnNames()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(fields, ", "), table.Name)

	var params []any
	if sel.Filter != nil {
		where, whereParams, err := compilePredicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = whereParams
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(table.OrderBy)
	return b.String(), params, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return eq.Field + " = ?", []any{param}, nil
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		switch pred.(type) {
		case queryir.And, *queryir.And:
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// irValueToParam converts an ir.IRValue to a Go native SQL parameter. Bools
// become 0 or 1, the way the store writes them.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
