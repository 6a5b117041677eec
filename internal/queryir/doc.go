// Package queryir is a small query representation for reading recorded
// runs back out of the store.
//
// A query names one table of the store schema, the columns to return and
// a conjunction of equality filters:
//
//	Select{
//	  From: "steps",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "run_id", Value: ir.IRString("fair-lock-handoff")},
//	    Equals{Field: "thread", Value: ir.IRInt(2)},
//	  }},
//	}
//
// Values are ir.IRValue, so a filter carries no floats and no host types.
// Validate checks a query against the schema; package querysql turns a
// valid query into parameterized SQL with a fixed ORDER BY.
//
// Query and Predicate are sealed: only types in this package implement
// them, so backends can switch over them exhaustively.
package queryir
