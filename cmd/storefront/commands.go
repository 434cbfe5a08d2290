// cmd/storefront/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/abc-retail/internal/app"
	"github.com/javajoker/abc-retail/internal/config"
	"github.com/javajoker/abc-retail/internal/database"
	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/telemetry"
	"github.com/javajoker/abc-retail/internal/utils"
)

const systemAdmin = "system"

var (
	cfg *config.Config

	drainMax     int
	tokenSubject string
	tokenType    string
	tokenTTL     time.Duration

	rootCmd = &cobra.Command{
		Use:           "storefront",
		Short:         "ABC Retail storefront server and operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded
			telemetry.ConfigureLogging(cfg.Logging.Level, cfg.Logging.Format)
			utils.SetJWTSecret(cfg.JWT.SecretKey)
			utils.SetJWTIssuer(cfg.JWT.Issuer)
			return i18n.Initialize(cfg.I18n.DefaultLocale)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in serve.go
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample product catalogue",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}

	drainCmd = &cobra.Command{
		Use:       "drain <queue>",
		Short:     "Process messages from a work queue until it is empty",
		Args:      cobra.ExactArgs(1),
		ValidArgs: services.QueueNames,
		RunE:      runDrain,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a customer or administrator",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
)

func init() {
	drainCmd.Flags().IntVar(&drainMax, "max", 0, "stop after this many messages (0 drains until empty)")

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "customer email or admin id")
	tokenCmd.Flags().StringVar(&tokenType, "type", string(models.UserTypeCustomer), "customer or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, drainCmd, tokenCmd)
}

// openContainer connects the configured backends and wires the services.
func openContainer(ctx context.Context) (*app.Backends, *services.Container, error) {
	backends, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return backends, services.NewContainer(backends.Backends), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.Backends.Table != "postgres" {
		logrus.WithField("backend", cfg.Backends.Table).Info("Table backend has no schema, nothing to migrate")
		return nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	return database.RunMigrations(db)
}

func runSeed(cmd *cobra.Command, args []string) error {
	backends, container, err := openContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer backends.Close()

	count, err := container.Products.Seed(cmd.Context())
	if err != nil {
		return err
	}
	logrus.WithField("products", count).Info("Sample catalogue seeded")
	return nil
}

func runDrain(cmd *cobra.Command, args []string) error {
	queue := args[0]
	backends, container, err := openContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer backends.Close()

	processed, discarded := 0, 0
	for drainMax <= 0 || processed+discarded < drainMax {
		result, err := container.Admin.ProcessNext(cmd.Context(), systemAdmin, queue)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUnknownQueue):
				return fmt.Errorf("%w: %s (known queues: %v)", err, queue, services.QueueNames)
			case errors.Is(err, services.ErrMalformedMessage):
				discarded++
				logrus.WithError(err).WithField("queue", queue).Warn("Malformed message moved to dead letter log")
				continue
			}
			return err
		}
		if !result.Processed {
			break
		}
		processed++
		logrus.WithFields(logrus.Fields{
			"queue":      queue,
			"message_id": result.MessageID,
			"summary":    result.Summary,
		}).Info("Message processed")
	}

	logrus.WithFields(logrus.Fields{
		"queue":     queue,
		"processed": processed,
		"discarded": discarded,
	}).Info("Drain finished")
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	switch models.UserType(tokenType) {
	case models.UserTypeCustomer:
		tokenSubject = models.NormalizeEmail(tokenSubject)
	case models.UserTypeAdmin:
	default:
		return fmt.Errorf("unknown token type %q", tokenType)
	}

	token, err := utils.GenerateJWT(tokenSubject, tokenType, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
