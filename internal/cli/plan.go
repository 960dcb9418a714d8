package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/app/planning"
	"github.com/Ilay3/ProductionScheduler/internal/daemon"
	"github.com/Ilay3/ProductionScheduler/internal/domain"
	"github.com/spf13/cobra"
)

var (
	planPartID   int64
	planQuantity int
	planStart    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a task against the shift calendar",
	Long: `Plan computes per-stage start and end times for a part at the given
quantity. Machines are picked automatically, preferring ones that are
free at the requested start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseStart(planStart)
		if err != nil {
			return err
		}
		return withDaemon(func(d *daemon.Daemon) error {
			part, err := d.DB.GetPart(planPartID)
			if err != nil {
				return err
			}
			assignments, err := autoAssign(d, *part, start)
			if err != nil {
				return err
			}
			plan, err := d.Planner.PlanTask(*part, planQuantity, start, assignments)
			if err != nil {
				return err
			}
			printPlan(plan)
			return nil
		})
	},
}

// autoAssign picks one machine per route stage the same way the API
// does when a request names none.
func autoAssign(d *daemon.Daemon, part domain.Part, at time.Time) ([]planning.StageAssignment, error) {
	stages, err := d.DB.GetRouteStages(part.ID)
	if err != nil {
		return nil, err
	}
	assignments := make([]planning.StageAssignment, 0, len(stages))
	for _, rs := range stages {
		m, err := d.Analyzer.SelectBest(rs, at)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("operation %s: %w", rs.OperationNumber, domain.ErrMachineNotFound)
		}
		assignments = append(assignments, planning.StageAssignment{RouteStage: rs, Machine: *m})
	}
	return assignments, nil
}

func printPlan(plan *planning.Plan) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OP\tNAME\tMACHINE\tQTY\tSTART\tEND\tDEFERRED")
	for _, sp := range plan.StagePlans {
		deferred := ""
		if sp.DeferredToNextShift {
			deferred = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			sp.RouteStage.OperationNumber, sp.RouteStage.OperationName,
			sp.Machine.Name, sp.QuantityToProcess,
			fmtTime(sp.PlannedStartTime), fmtTime(sp.PlannedEndTime), deferred)
	}
	w.Flush()
	fmt.Printf("\nTotal: %s (%s to %s)\n",
		fmtDuration(plan.TotalDuration), fmtTime(plan.PlannedStartTime), fmtTime(plan.PlannedEndTime))
	if plan.ExceedsPreferredTime {
		fmt.Println("Note: plan extends outside the preferred day window.")
	}
}

func init() {
	planCmd.Flags().Int64Var(&planPartID, "part", 0, "part id to plan")
	planCmd.Flags().IntVar(&planQuantity, "quantity", 1, "units to produce")
	planCmd.Flags().StringVar(&planStart, "start", "", "preferred start time (default now)")
	planCmd.MarkFlagRequired("part")
	rootCmd.AddCommand(planCmd)
}
