package cmd

import (
	"context"
	"os"
	"time"

	"github.com/civicconnect/civicconnect-services/db"
	"github.com/civicconnect/civicconnect-services/internal/appconfig"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	adminEmail  string
	adminMobile string
	adminName   string
)

var migrateCmd = &cobra.Command{
	Use:   "init-db-migrate",
	Short: "Initialize tables and run database migrations",
	Long: `This job runs the embedded goose migrations, which also seed the wards and
departments. When ADMIN_PASSWORD is set it then creates the bootstrap admin
account if no user has the admin email yet.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Set the log level
		setLogging(logLevel)

		// Load the config file
		var err error
		appCfg, err = appconfig.LoadConfig(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}

		civicDB, err = db.NewCivicDB(appCfg.Database.Driver, appCfg.Database.Source, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize CivicDB")
		}
		defer civicDB.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		// Run the migrations
		log.Info().Msgf("Running migrations...")
		if err := civicDB.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Msg("Migrations complete")

		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			log.Info().Msg("ADMIN_PASSWORD not set, skipping admin bootstrap")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash admin password")
		}

		created, err := civicDB.EnsureAdmin(ctx, &models.User{
			Name:         adminName,
			Email:        adminEmail,
			Mobile:       adminMobile,
			PasswordHash: string(hash),
			Active:       true,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create admin account")
		}
		if created {
			log.Info().Str("email", adminEmail).Msg("Admin account created")
		} else {
			log.Info().Str("email", adminEmail).Msg("Admin account already exists")
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&adminEmail, "admin-email", envOr("ADMIN_EMAIL", "admin@civicconnect.local"), "email of the bootstrap admin")
	migrateCmd.Flags().StringVar(&adminMobile, "admin-mobile", envOr("ADMIN_MOBILE", "9999999999"), "mobile number of the bootstrap admin")
	migrateCmd.Flags().StringVar(&adminName, "admin-name", "System Administrator", "name of the bootstrap admin")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
