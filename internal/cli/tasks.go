package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/Ilay3/ProductionScheduler/internal/daemon"
	"github.com/Ilay3/ProductionScheduler/internal/domain"
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Create, inspect and drive production tasks",
}

var (
	taskCreatePart  int64
	taskCreateQty   int
	taskCreateNotes string
	taskListStatus  string
	taskListLimit   int
)

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task for a part",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			task, err := d.Tracker.CreateTask(taskCreatePart, taskCreateQty, taskCreateNotes)
			if err != nil {
				return err
			}
			fmt.Printf("Created task %d (%s) with %d stages.\n", task.ID, task.Ref, len(task.Stages))
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(d *daemon.Daemon) error {
			tasks, err := d.DB.ListTasks(domain.Status(taskListStatus), taskListLimit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPART\tQTY\tSTATUS\tCREATED\tSTARTED")
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\n",
					t.ID, t.PartID, t.Quantity, t.Status,
					fmtTime(t.CreationTime), fmtTimePtr(t.ActualStartTime))
			}
			return w.Flush()
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task and its stages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := taskID(args[0])
		if err != nil {
			return err
		}
		return withDaemon(func(d *daemon.Daemon) error {
			task, err := d.DB.GetTask(id)
			if err != nil {
				return err
			}
			fmt.Printf("Task %d  part=%d  qty=%d  status=%s\n", task.ID, task.PartID, task.Quantity, task.Status)
			if task.Notes != "" {
				fmt.Println("Notes:", task.Notes)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tORDER\tQTY\tSTATUS\tPLANNED START\tPLANNED END")
			for _, st := range task.Stages {
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\n",
					st.ID, st.OrderInTask, st.QuantityToProcess, st.Status,
					fmtTimePtr(st.PlannedStartTime), fmtTimePtr(st.PlannedEndTime))
			}
			return w.Flush()
		})
	},
}

var taskStatsCmd = &cobra.Command{
	Use:   "stats <task-id>",
	Short: "Show planned-versus-actual statistics for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := taskID(args[0])
		if err != nil {
			return err
		}
		return withDaemon(func(d *daemon.Daemon) error {
			stats, err := d.Tracker.Statistics(id)
			if err != nil {
				return err
			}
			fmt.Printf("Task %d  planned=%s  actual=%s  efficiency=%.1f%%  deviation=%s\n",
				stats.TaskID, fmtDuration(stats.PlannedDuration), fmtDuration(stats.ActualDuration),
				stats.OverallEfficiency, fmtDuration(stats.OverallDeviation))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tPLANNED\tACTUAL\tEFFICIENCY\tDEVIATION")
			for _, s := range stats.Stages {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.1f%%\t%s\n",
					s.StageID, fmtDuration(s.PlannedDuration), fmtDuration(s.ActualDuration),
					s.Efficiency, fmtDuration(s.Deviation))
			}
			return w.Flush()
		})
	},
}

// taskTransitionCmd builds start/pause/complete/cancel subcommands,
// which differ only in the tracker call they make.
func taskTransitionCmd(use, short string, fn func(d *daemon.Daemon, id int64) (*domain.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskID(args[0])
			if err != nil {
				return err
			}
			return withDaemon(func(d *daemon.Daemon) error {
				task, err := fn(d, id)
				if err != nil {
					return err
				}
				fmt.Printf("Task %d is now %s.\n", task.ID, task.Status)
				return nil
			})
		},
	}
}

func taskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func init() {
	taskCreateCmd.Flags().Int64Var(&taskCreatePart, "part", 0, "part id")
	taskCreateCmd.Flags().IntVar(&taskCreateQty, "quantity", 1, "units to produce")
	taskCreateCmd.Flags().StringVar(&taskCreateNotes, "notes", "", "free-form notes")
	taskCreateCmd.MarkFlagRequired("part")

	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "filter by status")
	taskListCmd.Flags().IntVar(&taskListLimit, "limit", 50, "maximum rows to return")

	tasksCmd.AddCommand(taskCreateCmd)
	tasksCmd.AddCommand(taskListCmd)
	tasksCmd.AddCommand(taskShowCmd)
	tasksCmd.AddCommand(taskStatsCmd)
	tasksCmd.AddCommand(taskTransitionCmd("start", "Start executing a task", func(d *daemon.Daemon, id int64) (*domain.Task, error) {
		return d.Tracker.StartTask(id)
	}))
	tasksCmd.AddCommand(taskTransitionCmd("pause", "Pause a running task", func(d *daemon.Daemon, id int64) (*domain.Task, error) {
		return d.Tracker.PauseTask(id)
	}))
	tasksCmd.AddCommand(taskTransitionCmd("complete", "Mark a task completed", func(d *daemon.Daemon, id int64) (*domain.Task, error) {
		return d.Tracker.CompleteTask(id)
	}))
	tasksCmd.AddCommand(taskTransitionCmd("cancel", "Cancel a task", func(d *daemon.Daemon, id int64) (*domain.Task, error) {
		return d.Tracker.CancelTask(id)
	}))
	rootCmd.AddCommand(tasksCmd)
}
