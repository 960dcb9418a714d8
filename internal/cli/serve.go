package cli

import (
	"context"

	"github.com/Ilay3/ProductionScheduler/internal/daemon"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			d.Config.API.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			d.Config.API.Port = servePort
		}
		return d.Run(context.Background())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "address to bind")
	serveCmd.Flags().IntVar(&servePort, "port", 8321, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}
