package cli

import (
	"fmt"

	"github.com/Ilay3/ProductionScheduler/internal/daemon"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog into the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.DB.SeedDemo(); err != nil {
			return err
		}
		fmt.Println("Demo catalog loaded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
