package cmd

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/abeval-cli/internal/dashboard"
	"github.com/KaramelBytes/abeval-cli/internal/logging"
	"github.com/KaramelBytes/abeval-cli/internal/ux"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive results dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ds, err := loadInput(cmd)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			c.DashboardAddr = serveAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv, err := dashboard.New(ds, c, logging.GetLogger(cmd.Context()))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ux.Successf(cmd.OutOrStdout(), "Dashboard on http://%s (Ctrl+C to stop)", c.DashboardAddr)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addInputFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config dashboard_addr)")
}
