// Package sqldsl provides a typed DSL for building parameterized PostgreSQL
// filter predicates.
//
// # Overview
//
// Rather than concatenating SQL strings, filter compilation composes typed
// building blocks. Every value that originates from a query plan is bound as a
// positional parameter ($1, $2, ...) collected in Params; only identifiers
// (quoted) and keywords reach the SQL text.
//
// # Core Interfaces
//
//   - Expr: SQL expressions (columns, parameters, operators, subqueries)
//   - TableExpr: FROM/JOIN sources
//
// Both render PostgreSQL syntax through SQL()/TableSQL().
//
// # Expression Types
//
//	Col{Table: "r", Column: "aBool"}    // "r"."aBool"
//	params.Add(true)                    // $1
//	Bool(true)                          // TRUE
//	Raw("1")                            // Raw SQL (escape hatch)
//
// Operators:
//
//	Eq{Left: col, Right: arg}           // col = $1
//	DistinctFrom{Left: col, Right: arg} // col IS DISTINCT FROM $1
//	In{Expr: col, Values: args}         // col IN ($1, $2)
//	And(e1, e2), Or(e1, e2), Not(e)     // (e1 AND e2), (e1 OR e2), NOT (e)
//	IsNotTrue{Expr: e}                  // (e) IS NOT TRUE
//	Exists{Query: stmt}                 // EXISTS (SELECT ...)
//
// # Statements
//
//	SelectStmt{
//	    Columns: []Expr{Col{Table: "r", Column: "id"}},
//	    From:    TableAs("resources", "r"),
//	    Where:   And(cond1, cond2),
//	    Limit:   100,
//	}
package sqldsl
