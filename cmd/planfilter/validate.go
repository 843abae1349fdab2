package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the model file",
	Long: `Validate the model file: the attribute mapping (ambiguous or empty entries)
and the table schema (missing tables or keys, relations without a schema).`,
	Example: `  # Validate the model named in planfilter.yaml
  planfilter validate

  # Validate a specific model file
  planfilter validate --model config/model.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel()
		if err != nil {
			return err
		}

		if !quiet {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Model is valid. Table %s with %d fields and %d relations:\n",
				m.Schema.Table, len(m.Mapping.Fields), len(m.Mapping.Relations))
			for _, path := range slices.Sorted(maps.Keys(m.Mapping.Relations)) {
				rel := m.Mapping.Relations[path]
				_, _ = fmt.Fprintf(out, "  - %s -> %s.%s\n", path, rel.Name, rel.Field)
			}
		}
		return nil
	},
}
