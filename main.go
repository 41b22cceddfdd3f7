package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/centraldavisao/lead-funnel/pkg/api"
	"github.com/centraldavisao/lead-funnel/pkg/auth"
	"github.com/centraldavisao/lead-funnel/pkg/clients/twilio"
	"github.com/centraldavisao/lead-funnel/pkg/clients/webhook"
	"github.com/centraldavisao/lead-funnel/pkg/config"
	"github.com/centraldavisao/lead-funnel/pkg/logging"
	"github.com/centraldavisao/lead-funnel/pkg/services"
	"github.com/centraldavisao/lead-funnel/pkg/session"
	"github.com/centraldavisao/lead-funnel/pkg/store"
	"github.com/centraldavisao/lead-funnel/pkg/web"
)

const shutdownTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Lead funnel and conversion dashboard for Central da Visão",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file loaded")
		}
	},
	SilenceUsage: true,
}

// serveCmd runs the HTTP server and the report scheduler
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

// migrateCmd applies database migrations and exits
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrate,
}

// hashPasswordCmd prints a bcrypt hash for ADMIN_PASSWORD_HASH
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Print a bcrypt hash for ADMIN_PASSWORD_HASH.

The password is read from the argument, or from stdin when omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(cmd.Context()); err != nil {
		return err
	}
	logger.Info("Migrations applied", zap.String("driver", st.Driver()))
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = line
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Initialize API clients
	var webhookClient webhook.Client
	if cfg.WebhookURL != "" {
		webhookClient = webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout, cfg.WebhookMaxAttempts, logger)
		defer webhookClient.Close()
	} else {
		logger.Warn("WEBHOOK_URL not set, lead notifications disabled")
	}
	var twilioClient twilio.Client
	if cfg.TwilioEnabled() {
		twilioClient = twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, logger)
	}

	// Initialize services
	submissionService := services.NewLeadSubmissionService(st, webhookClient, twilioClient, cfg.TwilioNotifyTo, logger)
	trackingService := services.NewTrackingService(st, logger)
	dashboardService := services.NewDashboardService(st)

	renderer, err := web.NewRenderer(cfg.PixelID, logger)
	if err != nil {
		return err
	}
	if cfg.AdminPasswordHash == "" || cfg.JWTSecret == "" {
		logger.Warn("ADMIN_PASSWORD_HASH or JWT_SECRET not set, dashboard login disabled")
	}
	authenticator := auth.NewAuthenticator(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.AdminTokenTTL, cfg.SecureCookies())

	gin.SetMode(cfg.GinMode)

	// Initialize handlers
	handlers := api.NewHandlers(api.Dependencies{
		Store:          st,
		Sessions:       sessions,
		Submission:     submissionService,
		Tracking:       trackingService,
		Dashboard:      dashboardService,
		Auth:           authenticator,
		Renderer:       renderer,
		ClinicWhatsApp: cfg.ClinicWhatsApp,
		SecureCookies:  cfg.SecureCookies(),
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handlers, cfg.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var report *services.ReportService
	if cfg.ReportCron != "" && twilioClient != nil {
		report = services.NewReportService(dashboardService, twilioClient, cfg.TwilioNotifyTo, logger)
		if err := report.Start(cfg.ReportCron); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if report != nil {
			report.Stop(shutdownCtx)
		}
		err := server.Shutdown(shutdownCtx)
		submissionService.Wait()
		return err
	})
	return g.Wait()
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionBackend != "redis" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
}
