package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/Ilay3/ProductionScheduler/internal/daemon"
	"github.com/spf13/cobra"
)

var altAt string

var alternativesCmd = &cobra.Command{
	Use:   "alternatives <route-stage-id>",
	Short: "Rank machines able to run a route stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stageID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid route stage id %q", args[0])
		}
		at, err := parseStart(altAt)
		if err != nil {
			return err
		}
		return withDaemon(func(d *daemon.Daemon) error {
			rs, err := d.DB.GetRouteStage(stageID)
			if err != nil {
				return err
			}
			alts, err := d.Analyzer.RankAlternatives(*rs, at)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MACHINE\tAVAILABLE\tEARLIEST\tPRIORITY")
			for _, alt := range alts {
				avail := "now"
				if !alt.Available {
					avail = "busy"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
					alt.Machine.Name, avail, fmtTime(alt.EarliestAvailable), alt.Priority)
			}
			return w.Flush()
		})
	},
}

func init() {
	alternativesCmd.Flags().StringVar(&altAt, "at", "", "time to evaluate availability (default now)")
	rootCmd.AddCommand(alternativesCmd)
}
