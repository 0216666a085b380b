package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	invoiceDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/invoice"
	notificationDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/dormitory-management/internal/invoice"
	"github.com/frahmantamala/dormitory-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/dormitory-management/internal/notification/postgres"
	"github.com/frahmantamala/dormitory-management/internal/tenant"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type singleTenantDirectory struct{}

func (singleTenantDirectory) GetActive(_ context.Context, id int64) (*tenant.Info, error) {
	roomID := int64(10)
	return &tenant.Info{ID: id, Name: "Sari", RoomID: &roomID, RoomPrice: 1500000}, nil
}

func (singleTenantDirectory) ListActive(_ context.Context) ([]*tenant.Info, error) {
	return nil, nil
}

type noopPaymentRecorder struct{}

func (noopPaymentRecorder) ApprovePending(_ context.Context, _, _ int64, _ *int64, _ time.Time) (int64, error) {
	return 77, nil
}

func (noopPaymentRecorder) RejectPending(_ context.Context, _ int64, _ *int64) error {
	return nil
}

type unboundBindings struct{}

func (unboundBindings) ExternalIDForTenant(_ context.Context, _ int64) (string, error) {
	return "", nil
}

type noopPusher struct{}

func (noopPusher) Push(_ context.Context, _, _ string) error { return nil }

// Decide raises its notification after the surrounding transaction has
// committed, so these specs run the service against a real transaction
// manager and the real notification repository instead of mocks.
var _ = Describe("Service decide over a real transaction boundary", func() {
	var (
		db         *gorm.DB
		repo       *InvoiceRepository
		notifRepo  notification.Repository
		dispatcher *notification.Dispatcher
		svc        *invoice.Service
	)

	notificationTypes := func(tenantID int64) []string {
		rows, err := notifRepo.ListByTenant(context.Background(), tenantID, 100, 0)
		Expect(err).NotTo(HaveOccurred())
		var types []string
		for _, n := range rows {
			types = append(types, n.Type)
		}
		return types
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		// every sqlite :memory: connection is its own database, and the
		// delivery pool writes from another goroutine
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(
			&invoiceDatamodel.Invoice{},
			&invoiceDatamodel.Counter{},
			&notificationDatamodel.Notification{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewInvoiceRepository(db)
		notifRepo = notificationPostgres.NewNotificationRepository(db)
		dispatcher = notification.NewDispatcher(notifRepo, unboundBindings{}, noopPusher{}, notification.DispatcherConfig{
			MaxWorkers:   1,
			JobQueueSize: 8,
		}, slog.Default())

		svc = invoice.NewService(repo, database.NewManager(db), singleTenantDirectory{}, noopPaymentRecorder{}, dispatcher, slog.Default())
	})

	AfterEach(func() {
		dispatcher.Shutdown()
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("persists the approval notification row after commit", func() {
		inv, err := svc.Issue(context.Background(), invoice.IssueDTO{
			TenantID: 5,
			Period:   "2025-09",
			Amount:   1500000,
		})
		Expect(err).NotTo(HaveOccurred())

		actor := int64(9)
		result, err := svc.Decide(context.Background(), inv.ID, invoice.ActionApprove, &actor)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(invoice.StatusPaid))
		Expect(notificationTypes(5)).To(ContainElement(notification.TypePaymentApproved))
	})

	It("persists the rejection notification row after commit", func() {
		inv, err := svc.Issue(context.Background(), invoice.IssueDTO{
			TenantID: 5,
			Period:   "2025-09",
			Amount:   1500000,
		})
		Expect(err).NotTo(HaveOccurred())

		inv.Status = invoice.StatusPending
		Expect(repo.Update(context.Background(), inv)).To(Succeed())

		actor := int64(9)
		result, err := svc.Decide(context.Background(), inv.ID, invoice.ActionReject, &actor)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).NotTo(Equal(invoice.StatusPending))
		Expect(notificationTypes(5)).To(ContainElement(notification.TypePaymentRejected))
	})
})
