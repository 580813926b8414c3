package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/civicconnect/civicconnect-services/db"
	"github.com/civicconnect/civicconnect-services/internal/appconfig"
	"github.com/civicconnect/civicconnect-services/internal/awsclient"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/mail"
	"github.com/civicconnect/civicconnect-services/internal/notify"
	"github.com/rs/zerolog/log"
)

var (
	appCfg  *appconfig.Config
	civicDB *db.CivicDB
)

// commonSetUp sets the log level, loads the config and opens the database.
func commonSetUp() {
	setLogging(logLevel)

	var err error
	appCfg, err = appconfig.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	civicDB, err = db.NewCivicDB(appCfg.Database.Driver, appCfg.Database.Source, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize CivicDB")
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// needsAWS reports whether any configured feature talks to AWS.
func needsAWS(cfg *appconfig.Config) bool {
	return cfg.Auth.JWTSecretArn != "" || cfg.Email.Enabled || cfg.AWS.S3.Bucket != ""
}

func loadAWS(ctx context.Context) (aws.Config, error) {
	if !needsAWS(appCfg) {
		return aws.Config{}, nil
	}
	log.Info().Str("region", appCfg.AWS.Region).Msg("Loading AWS configuration")
	return awsclient.LoadAWSConfig(ctx, appCfg.AWS.Region)
}

// newMailer returns an SES mailer when email is enabled, else one that only logs.
func newMailer(awsCfg aws.Config) mail.Mailer {
	if !appCfg.Email.Enabled {
		return mail.LogMailer{Log: &log.Logger}
	}
	return mail.NewSESMailer(awsclient.NewSESClient(awsCfg), appCfg.Email.Sender, &log.Logger)
}

func newDispatcher(mailer mail.Mailer) *notify.Dispatcher {
	return &notify.Dispatcher{Store: civicDB, Mailer: mailer, Log: &log.Logger}
}

// newNotifier publishes to Pulsar when a broker is configured. Otherwise
// events are handled in-process by the notification dispatcher.
func newNotifier(mailer mail.Mailer) (events.Notifier, error) {
	if appCfg.Pulsar.URL == "" {
		log.Info().Msg("No Pulsar broker configured, dispatching events in-process")
		return events.NewLocalPublisher(newDispatcher(mailer).Handle, 256, &log.Logger), nil
	}

	publisher, err := events.NewEventPublisher(appCfg.Pulsar.URL, appCfg.Pulsar.TopicProducer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	return publisher, nil
}
