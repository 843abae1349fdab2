// Package compiler provides the public API for rendering translated filters
// as parameterized PostgreSQL.
//
// This is a thin wrapper around internal/sqlgen that exposes only the public
// types and functions needed by external consumers. To execute the SQL, use
// pkg/store instead.
package compiler

import (
	"github.com/pthm/planfilter/internal/sqlgen"
)

// Schema describes the filtered table and its relations.
type Schema = sqlgen.Schema

// Join describes how a relation's rows are reached from the filtered table.
type Join = sqlgen.Join

// Through is the join table of a many-to-many relation.
type Through = sqlgen.Through

// Query is compiled SQL with its bind arguments.
type Query = sqlgen.Query

// Compile renders a translation result as a WHERE-clause fragment.
var Compile = sqlgen.Compile

// CompileFilter renders a single filter as a WHERE-clause fragment.
var CompileFilter = sqlgen.CompileFilter

// Select renders a SELECT statement restricted by a translation result.
var Select = sqlgen.Select

// Compilation errors.
var (
	ErrInvalidSchema        = sqlgen.ErrInvalidSchema
	ErrUnknownRelation      = sqlgen.ErrUnknownRelation
	ErrUnsupportedPredicate = sqlgen.ErrUnsupportedPredicate
	ErrUnsupportedValue     = sqlgen.ErrUnsupportedValue
)
