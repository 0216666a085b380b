package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	"github.com/frahmantamala/dormitory-management/internal/linking"
	linkingPostgres "github.com/frahmantamala/dormitory-management/internal/linking/postgres"
	"github.com/frahmantamala/dormitory-management/internal/messaging"
	messagingPostgres "github.com/frahmantamala/dormitory-management/internal/messaging/postgres"
	"github.com/frahmantamala/dormitory-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/dormitory-management/internal/notification/postgres"
	"github.com/frahmantamala/dormitory-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run delivery worker tasks",
	Long:  `Run maintenance tasks for the notification delivery pool.`,
}

var (
	redeliverLimit int

	redeliverCmd = &cobra.Command{
		Use:   "redeliver",
		Short: "Re-enqueue failed notification deliveries",
		Long:  `Load notifications whose last delivery attempt failed and push them through the delivery pool again.`,
		Run: func(cmd *cobra.Command, args []string) {
			runRedeliver()
		},
	}
)

func init() {
	redeliverCmd.Flags().IntVar(&redeliverLimit, "limit", 100, "maximum number of notifications to re-enqueue")
}

func runRedeliver() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithLevel(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}

	dbConn, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open gorm over pgx: %v\n", err)
		os.Exit(1)
	}

	txm := database.NewManager(gormDB)

	cipher, err := messaging.NewCipher(config.Messaging.MasterKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build settings cipher: %v\n", err)
		os.Exit(1)
	}
	settingsRepo := messagingPostgres.NewSettingsRepository(gormDB, cipher)
	settingsCache := messaging.NewSettingsCache(settingsRepo, config.Messaging.SettingsTTLOrDefault(), lg)
	bridge := messaging.NewBridge(settingsCache, messaging.BridgeConfig{
		APIBaseURL:         config.Messaging.APIBaseURL,
		SendTimeout:        config.Messaging.SendTimeoutOrDefault(),
		InsecureSkipVerify: config.Messaging.InsecureSkipVerify,
	}, lg)

	linkingSvc := linking.NewService(linkingPostgres.NewLinkingRepository(gormDB), txm, lg)
	dispatcher := notification.NewDispatcher(
		notificationPostgres.NewNotificationRepository(gormDB),
		linkingSvc,
		bridge,
		notification.DispatcherConfig{
			MaxWorkers:   config.Notifications.Workers,
			JobQueueSize: config.Notifications.QueueSize,
		},
		lg,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := dispatcher.Redeliver(ctx, redeliverLimit)
	if err != nil {
		lg.Error("redeliver failed", "error", err)
		dispatcher.Shutdown()
		os.Exit(1)
	}

	lg.Info("redeliver enqueued", "count", count)
	dispatcher.Shutdown()
}
