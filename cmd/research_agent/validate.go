package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/research-analyzer/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report.json>",
	Short: "Validate a saved report against the report schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	err := schemas.ValidateReportFile(args[0])
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
		return nil
	}

	var verr *schemas.ValidationError
	if errors.As(err, &verr) {
		for _, fe := range verr.Errors {
			cmd.PrintErrf("  %s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("%s: %d schema violation(s)", args[0], len(verr.Errors))
	}
	return err
}
