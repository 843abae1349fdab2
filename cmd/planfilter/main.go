// Package main provides a CLI for translating authorization query plans into
// record filters.
//
// The CLI supports:
//   - translate: Decode a plan and print its filter as JSON or SQL
//   - query: Run a plan's filter against PostgreSQL and print visible rows
//   - validate: Check the model file (mapping and table schema)
//   - doctor: Check the model file against the live database
//   - config show: Print the effective configuration
//
// Usage:
//
//	planfilter [flags] <command>
//
// Configuration is read from planfilter.yaml (discovered by walking up to the
// repository root) and PLANFILTER_* environment variables. The attribute
// mapping and table schema live in the model file it names.
package main

func main() {
	Execute()
}
