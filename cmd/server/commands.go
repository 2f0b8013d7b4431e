package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"adboard/internal/config"
	"adboard/internal/geocode"
	"adboard/internal/handler"
	"adboard/internal/logger"
	"adboard/internal/middleware"
	"adboard/internal/model"
	"adboard/internal/repository"
	"adboard/internal/service"
	"adboard/internal/storage"
	"adboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const sessionPruneInterval = time.Hour

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "server",
		Short:         "Advertisement board web server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.GetEnv("CONFIG_PATH", "config.yaml"), "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(configPath)
			},
		},
		newCreateAdminCmd(&configPath),
	)
	return root
}

func newCreateAdminCmd(configPath *string) *cobra.Command {
	var identity, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkAdminCredentials(identity, password); err != nil {
				return err
			}
			return runCreateAdmin(*configPath, identity, password)
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "email or phone of the admin")
	cmd.Flags().StringVar(&password, "password", "", "password of the admin")
	return cmd
}

// checkAdminCredentials applies the registration form rules to CLI input
func checkAdminCredentials(identity, password string) error {
	if identity == "" {
		return errors.New("--identity is required")
	}
	if len(password) < 6 || len(password) > utils.MaxPasswordBytes {
		return fmt.Errorf("--password must be 6 to %d bytes long", utils.MaxPasswordBytes)
	}
	return nil
}

// setup loads configuration, configures logging and opens the migrated database
func setup(ctx context.Context, configPath string) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Configure(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	dbPool, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return cfg, dbPool, nil
}

func newAuthService(cfg *config.Config, dbPool *pgxpool.Pool) service.AuthService {
	jwtUtil := utils.NewJWTUtil(cfg.Session.Secret, cfg.SessionExpiration())
	return service.NewAuthService(
		repository.NewUserRepository(dbPool),
		repository.NewSessionRepository(dbPool),
		jwtUtil,
	)
}

func runMigrate(configPath string) error {
	_, dbPool, err := setup(context.Background(), configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Migration failed")
		return err
	}
	dbPool.Close()
	return nil
}

func runCreateAdmin(configPath, identity, password string) error {
	ctx := context.Background()
	cfg, dbPool, err := setup(ctx, configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer dbPool.Close()

	authService := newAuthService(cfg, dbPool)
	if _, err := authService.Register(ctx, identity, password, model.RoleAdmin); err != nil {
		logger.Error().Err(err).Str("identity", identity).Msg("Failed to create admin")
		return err
	}
	logger.Info().Str("identity", identity).Msg("Admin created")
	return nil
}

func runServe(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, dbPool, err := setup(ctx, configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer dbPool.Close()

	gin.SetMode(cfg.Server.Mode)

	// --- Initialize Services ---
	authService := newAuthService(cfg, dbPool)
	if cfg.Admin.Identity != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.Admin.Identity, cfg.Admin.Password)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to seed admin")
			return err
		}
		if created {
			logger.Info().Str("identity", cfg.Admin.Identity).Msg("Seeded admin user")
		}
	}

	images, err := storage.NewImageStore(cfg.Server.UploadsDir)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to prepare uploads directory")
		return err
	}
	logger.Info().Str("dir", images.Dir()).Msg("Uploads will be stored here")

	geocoder := geocode.NewNominatimClient(cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent, cfg.GeocodingTimeout())
	adService := service.NewAdvertisementService(repository.NewAdvertisementRepository(dbPool), images, geocoder)

	// --- Setup Gin Router ---
	router, err := handler.NewRouter(handler.RouterDeps{
		Auth:       authService,
		Ads:        adService,
		Cookie:     middleware.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.SecureCookie},
		UploadsDir: images.Dir(),
		Health:     dbPool.Ping,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build router")
		return err
	}

	go pruneSessions(ctx, authService)

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serverErr:
		logger.Error().Err(err).Msg("Server failed")
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	logger.Info().Msg("Server exiting")
	return nil
}

// pruneSessions removes expired session rows until ctx is cancelled
func pruneSessions(ctx context.Context, authService service.AuthService) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := authService.PruneSessions(ctx); err != nil {
				logger.Warn().Err(err).Msg("Session pruning failed")
			}
		}
	}
}
