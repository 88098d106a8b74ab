package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cmmoran/viewbindgen/pkg/action/generate"
)

func init() {
	rootCmd.AddCommand(NewGenerateCommand())
}

func NewGenerateCommand() *cobra.Command {
	// generateCmd represents the viewbindgen generate command
	var generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "generate bindings",
		Long:  "Scan the module for annotated views and models and write their generated files",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			res, err := generate.Generate(opts)
			if err != nil {
				return err
			}
			return res.Err()
		},
	}
	addOptionFlags(generateCmd)

	return generateCmd
}
