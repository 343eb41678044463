package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/popshot/internal/level"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the level document JSON schema",
	Long: `Prints the JSON schema of level documents. Point an editor at it to get
completion and validation while authoring JSON or YAML levels.

Examples:
  popshot schema > levels/level.schema.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := level.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}
