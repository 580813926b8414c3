package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/civicconnect/civicconnect-services/api/services"
	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/awsclient"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runMonitor bool

// @title CivicConnect API
// @version v1
// @description API for filing, routing and resolving civic complaints.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server for handling API requests",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config, initialize the database and set up logging
		commonSetUp()
		defer civicDB.Close()

		ctx, stop := signalContext()
		defer stop()

		awsCfg, err := loadAWS(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS configuration")
		}

		secret, err := jwtSecret(ctx, awsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read JWT signing secret")
		}
		issuer, err := authn.NewTokenIssuer(secret, appCfg.Auth.Issuer, appCfg.Auth.TokenTTL.Duration)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize token issuer")
		}

		mailer := newMailer(awsCfg)
		notifier, err := newNotifier(mailer)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event publisher")
		}
		defer notifier.Close()

		service := &services.Service{
			Config:    appCfg,
			DB:        civicDB,
			Publisher: notifier,
			Mailer:    mailer,
			Tokens:    issuer,
			SLA:       sla.NewCalculator(appCfg.SLA.WarningPercent),
		}
		if bucket := appCfg.AWS.S3.Bucket; bucket != "" {
			log.Info().Str("bucket", bucket).Msg("Storing complaint images in S3")
			service.Images = storage.NewS3ImageStore(awsclient.NewS3Client(awsCfg), bucket, appCfg.AWS.S3.Prefix)
		} else {
			log.Warn().Msg("No image bucket configured, image uploads are disabled")
		}

		if runMonitor {
			go runSLAMonitor(ctx, notifier)
		}

		server := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           newRouter(service, issuer, appCfg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("could not shut down server cleanly")
			}
		}()

		log.Info().Msg(fmt.Sprintf("Server started at %s:%d", host, port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("could not start server")
		}
		log.Info().Msg("Server stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "host to run the server on")
	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run the server on")
	serveCmd.Flags().BoolVar(&runMonitor, "sla-monitor", true, "run the SLA monitor inside the server process")
}

// jwtSecret reads the signing secret from Secrets Manager when an ARN is
// configured, else from JWT_SECRET.
func jwtSecret(ctx context.Context, awsCfg aws.Config) (string, error) {
	if arn := appCfg.Auth.JWTSecretArn; arn != "" {
		client := awsclient.NewSecretsManagerClient(awsCfg)
		return awsclient.GetSecretString(ctx, client, arn, "jwtSecret")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET is not set and no auth.jwtSecretArn is configured")
	}
	return secret, nil
}

func runSLAMonitor(ctx context.Context, publisher events.Notifier) {
	monitor := &sla.Monitor{
		Store:     civicDB,
		Publisher: publisher,
		Calc:      sla.NewCalculator(appCfg.SLA.WarningPercent),
		Interval:  appCfg.SLA.SweepInterval.Duration,
		Log:       &log.Logger,
	}
	log.Info().Dur("interval", monitor.Interval).Msg("SLA monitor started")
	if err := monitor.Run(ctx); err != nil {
		log.Error().Err(err).Msg("SLA monitor stopped")
	}
}
