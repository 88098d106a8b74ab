package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cmmoran/viewbindgen/pkg/action/check"
)

func init() {
	rootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	var checkCmd = &cobra.Command{
		Use:   "check",
		Short: "verify generated files are current",
		Long:  "Render bindings in memory and fail with a diff when files on disk are stale",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			rep, err := check.Check(opts)
			if err != nil {
				return err
			}
			if !rep.Clean() {
				c.Print(rep.String())
				return rep.Err()
			}
			if !opts.AllowDiagnostics {
				return rep.Diagnostics.Err()
			}
			return nil
		},
	}
	addOptionFlags(checkCmd)

	return checkCmd
}
