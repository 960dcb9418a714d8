package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Ilay3/ProductionScheduler/internal/daemon"
	"github.com/spf13/cobra"
)

var (
	lotsPartID       int64
	lotsQuantity     int
	lotsStart        string
	lotsMaxLot       int
	lotsAlternatives bool
)

var lotsCmd = &cobra.Command{
	Use:   "lots",
	Short: "Plan a large order as a sequence of lots",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseStart(lotsStart)
		if err != nil {
			return err
		}
		return withDaemon(func(d *daemon.Daemon) error {
			result, err := d.Splitter.PlanWithSplitting(lotsPartID, lotsQuantity, start, lotsMaxLot, lotsAlternatives)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LOT\tQTY\tSTART\tEND\tDURATION")
			for _, lot := range result.Lots {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
					lot.LotNumber, lot.Quantity,
					fmtTime(lot.Plan.PlannedStartTime), fmtTime(lot.Plan.PlannedEndTime),
					fmtDuration(lot.Plan.TotalDuration))
			}
			w.Flush()
			for _, warn := range result.Warnings {
				fmt.Println("Warning:", warn)
			}
			return nil
		})
	},
}

func init() {
	lotsCmd.Flags().Int64Var(&lotsPartID, "part", 0, "part id to plan")
	lotsCmd.Flags().IntVar(&lotsQuantity, "quantity", 1, "total units to produce")
	lotsCmd.Flags().StringVar(&lotsStart, "start", "", "preferred start time (default now)")
	lotsCmd.Flags().IntVar(&lotsMaxLot, "max-lot", 0, "maximum lot size (0 uses the configured default)")
	lotsCmd.Flags().BoolVar(&lotsAlternatives, "alternatives", false, "suggest alternative machines per lot")
	lotsCmd.MarkFlagRequired("part")
	rootCmd.AddCommand(lotsCmd)
}
