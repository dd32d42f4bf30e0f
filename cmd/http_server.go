package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/gym-management/api"
	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/audit"
	auditpg "github.com/frahmantamala/gym-management/internal/audit/postgres"
	"github.com/frahmantamala/gym-management/internal/auth"
	authpg "github.com/frahmantamala/gym-management/internal/auth/postgres"
	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/credential"
	credentialpg "github.com/frahmantamala/gym-management/internal/credential/postgres"
	"github.com/frahmantamala/gym-management/internal/member"
	memberpg "github.com/frahmantamala/gym-management/internal/member/postgres"
	"github.com/frahmantamala/gym-management/internal/membership"
	membershippg "github.com/frahmantamala/gym-management/internal/membership/postgres"
	"github.com/frahmantamala/gym-management/internal/payment"
	paymentpg "github.com/frahmantamala/gym-management/internal/payment/postgres"
	"github.com/frahmantamala/gym-management/internal/session"
	sessionpg "github.com/frahmantamala/gym-management/internal/session/postgres"
	"github.com/frahmantamala/gym-management/internal/transport/middleware"
	"github.com/frahmantamala/gym-management/internal/transport/rest"
	"github.com/frahmantamala/gym-management/pkg/logger"
	"github.com/frahmantamala/gym-management/pkg/metrics"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.EventBus.Drain(ctx); err != nil {
			deps.Logger.Error("Event bus drain error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	gdb := deps.Gorm

	sessions := newSessionManager(cfg, sessionpg.NewSessionRepository(gdb), lg)
	credentials := credential.NewService(
		credentialpg.NewCredentialRepository(gdb),
		credential.LogNotifier{Logger: lg},
		credential.Config{
			BCryptCost:  cfg.Security.BCryptCost,
			CodeTTL:     cfg.Security.VerificationCodeTTL,
			MaxAttempts: cfg.Security.VerificationMaxAttempts,
		},
		lg,
	)

	catalog := auth.DefaultCatalog()
	authorizer := auth.NewAuthorizer(catalog, authpg.NewPermissionRepository(deps.DB), lg)
	authService := auth.NewService(credentials, sessions, authorizer, lg)
	roleService := auth.NewRoleService(authpg.NewRoleRepository(gdb), catalog, lg)

	modes := payment.Modes(cfg.Payment.FeePercents())

	membership.NewEventHandler(lg).RegisterEventHandlers(deps.EventBus)
	membershipService := membership.NewService(membershippg.NewMembershipRepository(gdb), modes, deps.EventBus, lg)
	memberService := member.NewService(memberpg.NewMemberRepository(gdb), lg)
	paymentService := payment.NewService(paymentpg.NewPaymentRepository(gdb), modes, lg)
	auditService := audit.NewService(auditpg.NewRepository(gdb))

	validator, err := middleware.NewOpenAPIValidator(context.Background(), api.OpenAPI, lg)
	if err != nil {
		return err
	}

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metrics.Init()
		metricsPath = cfg.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(deps.Router, rest.Dependencies{
		DB:             deps.DB,
		Sessions:       sessions,
		RBAC:           auth.NewRBACAuthorization(authorizer, lg),
		OpenAPI:        validator,
		AuthLimiter:    middleware.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.PerSecond, lg),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustProxy:     cfg.Server.TrustProxy,
		MetricsPath:    metricsPath,
		Logger:         lg,
	}, rest.Handlers{
		Auth:        auth.NewHandler(authService, sessions, lg),
		Roles:       auth.NewRoleHandler(roleService, lg),
		Members:     member.NewHandler(memberService, lg),
		Memberships: membership.NewHandler(membershipService, authorizer, lg),
		Payments:    payment.NewHandler(paymentService, lg),
		Audit:       audit.NewHandler(auditService, lg),
	})
	return nil
}

func newSessionManager(cfg *internal.Config, repo session.Repository, lg *slog.Logger) *session.Manager {
	return session.NewManager(repo, session.Config{
		Secret:       []byte(cfg.Security.SessionSecret),
		TTL:          cfg.Security.SessionTTL,
		PlatformTTL:  cfg.Security.PlatformTokenTTL,
		CookieName:   cfg.Security.CookieName,
		SecureCookie: cfg.Security.SecureCookie,
	}, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Gorm:     gdb,
		Router:   chi.NewRouter(),
		EventBus: events.NewEventBus(lg),
	}, nil
}

// initDB opens the shared connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
