// Package sqlgen compiles translated filters into parameterized PostgreSQL.
//
// # Overview
//
// A Schema names the table a filter applies to and describes, for every
// relation name used in RelationSome filters, how related rows are reached:
// directly through a foreign key on the related table, or through a join
// table. Compilation walks the filter tree and renders it with the sqldsl
// package:
//
//   - field predicates become column comparisons with $n bind parameters
//   - and / or / not become parenthesized boolean expressions
//   - relation predicates become correlated EXISTS subqueries
//
// Values are never interpolated into the SQL text and identifiers are always
// quoted, so mixed-case columns survive and user input cannot alter the
// statement.
//
// # NULL Handling
//
// equals null renders IS NULL and not null renders IS NOT NULL. Inequality
// against a value uses IS DISTINCT FROM, so rows with a NULL column are
// considered different from the value. Ordering comparisons against null are
// rejected.
//
// Negation follows the same rule: not over anything but a relation renders
// (e) IS NOT TRUE, so not(equals X) selects the same rows as not X. Negated
// relations render NOT (EXISTS ...), which is never NULL.
//
// Subquery aliases are r1, r2, ... for related tables and j1, j2, ... for
// join tables. A number whose alias equals the schema alias is skipped.
//
// # Example
//
//	schema := sqlgen.Schema{
//	    Table: "resources",
//	    Relations: map[string]sqlgen.Join{
//	        "owners": {Table: "users", Through: &sqlgen.Through{
//	            Table: "resource_owners", SourceKey: "resource_id", TargetKey: "user_id",
//	        }},
//	    },
//	}
//	q, err := sqlgen.Compile(result, schema)
//	// q.SQL:  EXISTS (SELECT 1 FROM "resource_owners" AS "j1" JOIN "users" AS "r1"
//	//         ON "r1"."id" = "j1"."user_id" WHERE ("j1"."resource_id" = "t"."id" AND "r1"."id" = $1))
//	// q.Args: ["user1"]
package sqlgen
