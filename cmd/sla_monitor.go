package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var slaMonitorCmd = &cobra.Command{
	Use:   "sla-monitor",
	Short: "Sweep open complaints and record SLA warnings and breaches",
	Long:  `Runs the SLA monitor on its own, for deployments that start the server with --sla-monitor=false.`,
	Run: func(cmd *cobra.Command, args []string) {
		commonSetUp()
		defer civicDB.Close()

		ctx, stop := signalContext()
		defer stop()

		awsCfg, err := loadAWS(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS configuration")
		}
		notifier, err := newNotifier(newMailer(awsCfg))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event publisher")
		}
		defer notifier.Close()

		runSLAMonitor(ctx, notifier)
	},
}

func init() {
	rootCmd.AddCommand(slaMonitorCmd)
}
