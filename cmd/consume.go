package cmd

import (
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Run the Pulsar consumer that turns complaint events into notifications",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config, initialize the database and set up logging
		commonSetUp()
		defer civicDB.Close()

		if appCfg.Pulsar.URL == "" {
			log.Fatal().Msg("pulsar.url is not configured, events are dispatched by the server")
		}

		ctx, stop := signalContext()
		defer stop()

		awsCfg, err := loadAWS(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS configuration")
		}

		// Initialize event consumer
		consumer, err := events.NewEventConsumer(appCfg.Pulsar.URL, appCfg.Pulsar.TopicConsumer,
			appCfg.Pulsar.Subscription, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event consumer")
		}
		defer consumer.Close()

		log.Info().Str("topic", appCfg.Pulsar.TopicConsumer).Msg("Waiting for complaint events")
		if err := consumer.Run(ctx, newDispatcher(newMailer(awsCfg)).Handle); err != nil {
			log.Error().Err(err).Msg("Event consumer stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
