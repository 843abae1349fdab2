package sqlgen

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Defaults applied to zero-valued Schema and Join fields.
const (
	DefaultAlias      = "t"
	DefaultPrimaryKey = "id"
)

// Schema describes the table a filter is applied to and how each relation
// name used in filters reaches its related rows.
type Schema struct {
	Table      string          `mapstructure:"table" json:"table"`
	Alias      string          `mapstructure:"alias" json:"alias,omitempty"`
	PrimaryKey string          `mapstructure:"primary_key" json:"primary_key,omitempty"`
	Relations  map[string]Join `mapstructure:"relations" json:"relations,omitempty"`
}

// Join describes a to-many association.
//
// Without Through, Table holds a ForeignKey column referencing the parent's
// primary key (one-to-many). With Through, rows are linked by a join table
// (many-to-many) and PrimaryKey is the related table's key.
type Join struct {
	Table      string   `mapstructure:"table" json:"table"`
	ForeignKey string   `mapstructure:"foreign_key" json:"foreign_key,omitempty"`
	PrimaryKey string   `mapstructure:"primary_key" json:"primary_key,omitempty"`
	Through    *Through `mapstructure:"through" json:"through,omitempty"`
}

// Through is the join table of a many-to-many association.
type Through struct {
	Table     string `mapstructure:"table" json:"table"`
	SourceKey string `mapstructure:"source_key" json:"source_key"` // references the parent
	TargetKey string `mapstructure:"target_key" json:"target_key"` // references the related row
}

func (s Schema) alias() string {
	if s.Alias != "" {
		return s.Alias
	}
	return DefaultAlias
}

func (s Schema) primaryKey() string {
	if s.PrimaryKey != "" {
		return s.PrimaryKey
	}
	return DefaultPrimaryKey
}

func (j Join) primaryKey() string {
	if j.PrimaryKey != "" {
		return j.PrimaryKey
	}
	return DefaultPrimaryKey
}

// Validate reports every missing table or key in the schema.
func (s Schema) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Table) == "" {
		errs = append(errs, fmt.Errorf("%w: table is required", ErrInvalidSchema))
	}
	for _, name := range slices.Sorted(maps.Keys(s.Relations)) {
		j := s.Relations[name]
		if j.Table == "" {
			errs = append(errs, fmt.Errorf("%w: relation %q: table is required", ErrInvalidSchema, name))
		}
		switch {
		case j.Through != nil:
			if j.Through.Table == "" || j.Through.SourceKey == "" || j.Through.TargetKey == "" {
				errs = append(errs, fmt.Errorf("%w: relation %q: through requires table, source_key and target_key", ErrInvalidSchema, name))
			}
		case j.ForeignKey == "":
			errs = append(errs, fmt.Errorf("%w: relation %q: foreign_key or through is required", ErrInvalidSchema, name))
		}
	}
	return errors.Join(errs...)
}

// Errors returned by compilation.
var (
	// ErrInvalidSchema is returned for incomplete table or relation schemas.
	ErrInvalidSchema = errors.New("sqlgen: invalid schema")

	// ErrUnknownRelation is returned when a filter names a relation the
	// schema does not describe.
	ErrUnknownRelation = errors.New("sqlgen: unknown relation")

	// ErrUnsupportedPredicate is returned for predicate operators without a
	// SQL rendering (typically ones added through operator overrides).
	ErrUnsupportedPredicate = errors.New("sqlgen: unsupported predicate")

	// ErrUnsupportedValue is returned when a value cannot be bound for the
	// predicate, e.g. a list outside IN or NULL in an ordering comparison.
	ErrUnsupportedValue = errors.New("sqlgen: unsupported value")
)
