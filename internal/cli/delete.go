// internal/cli/delete.go
package edgebench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
)

// deleteCmd implements the 'delete' command.
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored benchmark result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *benchmark.Store) error {
			ri, err := resolve(store, args[0])
			if err != nil {
				return err
			}
			store.DeleteResult(ri.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", ri.ID, ri.Result.BasicInfo.ModelName)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
