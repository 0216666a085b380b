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
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/dormitory-management/internal"
	"github.com/frahmantamala/dormitory-management/internal/auth"
	"github.com/frahmantamala/dormitory-management/internal/core/database"
	"github.com/frahmantamala/dormitory-management/internal/debt"
	debtPostgres "github.com/frahmantamala/dormitory-management/internal/debt/postgres"
	"github.com/frahmantamala/dormitory-management/internal/invoice"
	invoicePostgres "github.com/frahmantamala/dormitory-management/internal/invoice/postgres"
	"github.com/frahmantamala/dormitory-management/internal/linking"
	linkingPostgres "github.com/frahmantamala/dormitory-management/internal/linking/postgres"
	"github.com/frahmantamala/dormitory-management/internal/messaging"
	messagingPostgres "github.com/frahmantamala/dormitory-management/internal/messaging/postgres"
	"github.com/frahmantamala/dormitory-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/dormitory-management/internal/notification/postgres"
	"github.com/frahmantamala/dormitory-management/internal/payment"
	paymentPostgres "github.com/frahmantamala/dormitory-management/internal/payment/postgres"
	"github.com/frahmantamala/dormitory-management/internal/tenant"
	tenantPostgres "github.com/frahmantamala/dormitory-management/internal/tenant/postgres"
	"github.com/frahmantamala/dormitory-management/internal/transport/rest"
	"github.com/frahmantamala/dormitory-management/pkg/logger"
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
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	Dispatcher *notification.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		// Drain in-flight deliveries before the DB goes away.
		deps.Dispatcher.Shutdown()
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithLevel(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}

	dbConn, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm over pgx: %w", err)
	}

	txm := database.NewManager(gormDB)

	// Repositories.
	invoiceRepo := invoicePostgres.NewInvoiceRepository(gormDB)
	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
	notificationRepo := notificationPostgres.NewNotificationRepository(gormDB)
	linkingRepo := linkingPostgres.NewLinkingRepository(gormDB)
	tenantRepo := tenantPostgres.NewTenantRepository(gormDB)
	debtRepo := debtPostgres.NewDebtRepository(gormDB)

	// Messaging stack: encrypted settings behind a TTL cache, HTTP bridge.
	cipher, err := messaging.NewCipher(config.Messaging.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build settings cipher: %w", err)
	}
	settingsRepo := messagingPostgres.NewSettingsRepository(gormDB, cipher)
	settingsCache := messaging.NewSettingsCache(settingsRepo, config.Messaging.SettingsTTLOrDefault(), lg)
	bridge := messaging.NewBridge(settingsCache, messaging.BridgeConfig{
		APIBaseURL:         config.Messaging.APIBaseURL,
		SendTimeout:        config.Messaging.SendTimeoutOrDefault(),
		InsecureSkipVerify: config.Messaging.InsecureSkipVerify,
	}, lg)

	// Services.
	tenantDir := tenant.NewDirectory(tenantRepo, lg)
	linkingSvc := linking.NewService(linkingRepo, txm, lg)
	dispatcher := notification.NewDispatcher(notificationRepo, linkingSvc, bridge, notification.DispatcherConfig{
		MaxWorkers:   config.Notifications.Workers,
		JobQueueSize: config.Notifications.QueueSize,
	}, lg)
	paymentSvc := payment.NewService(paymentRepo, invoiceRepo, txm, lg)
	invoiceSvc := invoice.NewService(invoiceRepo, txm, tenantDir, paymentSvc, dispatcher, lg)
	notificationSvc := notification.NewService(notificationRepo, lg)
	debtSvc := debt.NewService(debtRepo, tenantDir, lg)
	interpreter := linking.NewInterpreter(linkingSvc, lg)

	// Auth.
	tokens := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration)
	checker := auth.NewPermissionChecker()
	authMW := auth.NewMiddleware(tokens, checker, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, dbConn.DB, authMW, rest.Handlers{
		Invoice:      invoice.NewHandler(invoiceSvc, checker),
		Payment:      payment.NewHandler(paymentSvc, checker),
		Debt:         debt.NewHandler(debtSvc, checker),
		Notification: notification.NewHandler(notificationSvc),
		Messaging:    messaging.NewHandler(settingsCache),
		Linking:      linking.NewHandler(linkingSvc),
		Webhook:      linking.NewWebhookHandler(bridge, interpreter, bridge, lg),
	}, lg)

	return &Dependencies{
		Config:     config,
		Logger:     lg,
		DB:         dbConn,
		Router:     router,
		Dispatcher: dispatcher,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
