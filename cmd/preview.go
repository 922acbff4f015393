package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var previewRows int

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the first rows of the processed table as Markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ds, err := loadInput(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ds.Markdown(previewRows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addInputFlags(previewCmd)
	previewCmd.Flags().IntVarP(&previewRows, "rows", "n", 5, "number of rows to show")
}
