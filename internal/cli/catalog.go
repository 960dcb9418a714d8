package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/Ilay3/ProductionScheduler/internal/daemon"
	"github.com/spf13/cobra"
)

var partsCmd = &cobra.Command{
	Use:   "parts",
	Short: "List the part catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			parts, err := d.DB.ListParts()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME")
			for _, p := range parts {
				fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Code, p.Name)
			}
			return w.Flush()
		})
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <part-id>",
	Short: "Show a part's processing route",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid part id %q", args[0])
		}
		return withDaemon(func(d *daemon.Daemon) error {
			stages, err := d.DB.GetRouteStages(partID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tOP\tNAME\tTYPE\tHOURS/UNIT")
			for _, rs := range stages {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.2f\n",
					rs.OrderInRoute, rs.OperationNumber, rs.OperationName,
					rs.MachineTypeID, rs.StandardTimePerUnit)
			}
			return w.Flush()
		})
	},
}

var machinesCmd = &cobra.Command{
	Use:   "machines",
	Short: "List machines and their types",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			types, err := d.DB.ListMachineTypes()
			if err != nil {
				return err
			}
			typeName := make(map[int64]string, len(types))
			for _, mt := range types {
				typeName[mt.ID] = mt.Name
			}
			machines, err := d.DB.ListMachines()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE")
			for _, m := range machines {
				fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.Name, typeName[m.MachineTypeID])
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(partsCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(machinesCmd)
}
