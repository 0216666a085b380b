package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	notificationDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/dormitory-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNotificationRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "NotificationRepository Suite")
}

var _ = Describe("NotificationRepository", func() {
	var (
		db   *gorm.DB
		repo notification.Repository
	)

	create := func(tenantID int64, typ string) *notification.Notification {
		n := &notification.Notification{
			TenantID: tenantID,
			Type:     typ,
			Title:    "Invoice issued",
			Body:     "Invoice INV-000001 for 2025-09 is ready.",
			RefKind:  "invoice",
			RefID:    1,
		}
		Expect(repo.Create(context.Background(), n)).To(Succeed())
		return n
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&notificationDatamodel.Notification{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewNotificationRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("MarkRead", func() {
		It("marks the tenant's own notification read", func() {
			n := create(1, notification.TypeInvoiceIssued)

			err := repo.MarkRead(context.Background(), n.ID, 1, time.Now().UTC())
			Expect(err).NotTo(HaveOccurred())

			rows, err := repo.ListByTenant(context.Background(), 1, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows[0].Read).To(BeTrue())
			Expect(rows[0].ReadAt).NotTo(BeNil())
		})

		It("does not let one tenant read another's notification", func() {
			n := create(1, notification.TypeInvoiceIssued)

			err := repo.MarkRead(context.Background(), n.ID, 2, time.Now().UTC())

			Expect(errors.Is(err, gorm.ErrRecordNotFound)).To(BeTrue())
		})
	})

	Describe("ClearRead", func() {
		It("deletes read rows and keeps unread ones", func() {
			read1 := create(1, notification.TypeInvoiceIssued)
			read2 := create(1, notification.TypePaymentApproved)
			unread := create(1, notification.TypePaymentRejected)
			Expect(repo.MarkRead(context.Background(), read1.ID, 1, time.Now().UTC())).To(Succeed())
			Expect(repo.MarkRead(context.Background(), read2.ID, 1, time.Now().UTC())).To(Succeed())

			deleted, err := repo.ClearRead(context.Background(), 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(2)))

			rows, err := repo.ListByTenant(context.Background(), 1, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ID).To(Equal(unread.ID))
		})
	})

	Describe("MarkAllRead", func() {
		It("only touches the given tenant", func() {
			create(1, notification.TypeInvoiceIssued)
			create(1, notification.TypePaymentApproved)
			other := create(2, notification.TypeInvoiceIssued)

			Expect(repo.MarkAllRead(context.Background(), 1, time.Now().UTC())).To(Succeed())

			rows, err := repo.ListByTenant(context.Background(), 1, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			for _, n := range rows {
				Expect(n.Read).To(BeTrue())
			}

			otherRows, err := repo.ListByTenant(context.Background(), 2, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(otherRows[0].ID).To(Equal(other.ID))
			Expect(otherRows[0].Read).To(BeFalse())
		})
	})

	Describe("delivery bookkeeping", func() {
		It("records and lists failed deliveries oldest first", func() {
			first := create(1, notification.TypeInvoiceIssued)
			second := create(1, notification.TypePaymentApproved)
			delivered := create(1, notification.TypePaymentRejected)

			errText := "channel API returned status 500"
			Expect(repo.UpdateDelivery(context.Background(), first.ID, notification.DeliveryFail, &errText, nil)).To(Succeed())
			Expect(repo.UpdateDelivery(context.Background(), second.ID, notification.DeliveryFail, &errText, nil)).To(Succeed())
			now := time.Now().UTC()
			Expect(repo.UpdateDelivery(context.Background(), delivered.ID, notification.DeliveryOK, nil, &now)).To(Succeed())

			failed, err := repo.ListFailed(context.Background(), 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(failed).To(HaveLen(2))
			Expect(failed[0].ID).To(Equal(first.ID))
			Expect(failed[1].ID).To(Equal(second.ID))
			Expect(*failed[0].DeliveryError).To(Equal(errText))
		})
	})
})
