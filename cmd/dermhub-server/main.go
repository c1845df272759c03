package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dermhub/dermhub/internal/config"
	"github.com/dermhub/dermhub/internal/domain/account"
	"github.com/dermhub/dermhub/internal/domain/catalog"
	"github.com/dermhub/dermhub/internal/domain/consultation"
	"github.com/dermhub/dermhub/internal/platform/auth"
	"github.com/dermhub/dermhub/internal/platform/db"
	"github.com/dermhub/dermhub/internal/platform/middleware"
	"github.com/dermhub/dermhub/internal/platform/notification"
	"github.com/dermhub/dermhub/internal/platform/seed"
	"github.com/dermhub/dermhub/internal/platform/uploads"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dermhub-server",
		Short: "Dermatology eConsultation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default consultation form and administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			catalogRepo := catalog.NewRepoPG(pool)
			accountRepo := account.NewRepoPG(pool)
			accountSvc := account.NewService(accountRepo, &notification.NoopSender{}, notification.NewTemplateEngine(), logger)

			seeder := seed.NewSeeder(catalogRepo, accountSvc, logger)
			if err := seeder.Run(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			fmt.Println("Seed completed.")
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Outbound email
	var mailer notification.EmailSender
	if cfg.MailConfigured() {
		mailer = notification.NewMailgunSender(cfg.MailgunBaseURL, cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailFrom)
		logger.Info().Str("domain", cfg.MailgunDomain).Msg("mailgun sender configured")
	} else {
		mailer = &notification.NoopSender{}
		logger.Warn().Msg("no mail provider configured, emails will be logged and dropped")
	}
	templates := notification.NewTemplateEngine()

	// Image uploads
	store, err := uploads.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to prepare upload directory")
	}

	// Auth
	sessions := auth.NewSessionManager(cfg.SessionSecret)
	tokens := auth.NewTokenIssuer(cfg.JWTSecretKey, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	// Repositories and services
	accountRepo := account.NewRepoPG(pool)
	catalogRepo := catalog.NewRepoPG(pool)
	consultRepo := consultation.NewRepoPG(pool)

	accountSvc := account.NewService(accountRepo, mailer, templates, logger)
	catalogSvc := catalog.NewService(catalogRepo)
	consultSvc := consultation.NewService(consultRepo, catalogRepo, accountRepo, store, mailer, templates, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(cfg.MaxUploadSize))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Patient routes are session-gated; admin routes require a bearer token
	// from an admin account. The admin login endpoint itself is registered
	// on the bare server by the account handler.
	patient := e.Group("", sessions.SessionAuth())
	admin := e.Group("/api", auth.TokenAuth(tokens), auth.RequireAdmin(accountSvc))

	account.NewHandler(accountSvc, sessions, tokens).RegisterRoutes(e, patient, admin)
	catalog.NewHandler(catalogSvc).RegisterRoutes(admin)
	consultation.NewHandler(consultSvc).RegisterRoutes(patient, admin)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	return nil
}
