package debt

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/dormitory-management/internal/tenant"
)

func TestDebt(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Debt Module Suite")
}

type tenantTotals struct {
	invoiced int64
	approved int64
	due      *time.Time
}

type mockDebtRepo struct {
	totals  map[int64]tenantTotals
	saved   map[int64]*Summary
	saveErr error
}

func newMockDebtRepo() *mockDebtRepo {
	return &mockDebtRepo{totals: map[int64]tenantTotals{}, saved: map[int64]*Summary{}}
}

func (m *mockDebtRepo) SumInvoiced(_ context.Context, tenantID int64) (int64, error) {
	return m.totals[tenantID].invoiced, nil
}

func (m *mockDebtRepo) SumApproved(_ context.Context, tenantID int64) (int64, error) {
	return m.totals[tenantID].approved, nil
}

func (m *mockDebtRepo) LatestUnsettledDueDate(_ context.Context, tenantID int64) (*time.Time, error) {
	return m.totals[tenantID].due, nil
}

func (m *mockDebtRepo) SaveSummary(_ context.Context, summary *Summary) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *summary
	m.saved[summary.TenantID] = &cp
	return nil
}

type stubDirectory struct {
	infos []*tenant.Info
}

func (s *stubDirectory) ListActive(_ context.Context) ([]*tenant.Info, error) {
	return s.infos, nil
}

var _ = ginkgo.Describe("DebtService", func() {
	var (
		service *Service
		repo    *mockDebtRepo
		dir     *stubDirectory
	)

	timeptr := func(t time.Time) *time.Time { return &t }

	ginkgo.BeforeEach(func() {
		repo = newMockDebtRepo()
		dir = &stubDirectory{infos: []*tenant.Info{{ID: 1, Name: "Sari"}, {ID: 2, Name: "Budi"}}}
		service = NewService(repo, dir, slog.Default())
	})

	ginkgo.Describe("ForTenant", func() {
		ginkgo.It("should subtract approved payments from invoiced totals", func() {
			repo.totals[1] = tenantTotals{invoiced: 3000000, approved: 1000000}

			summary, err := service.ForTenant(context.Background(), 1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(summary.Outstanding).To(gomega.Equal(int64(2000000)))
		})

		ginkgo.It("should report zero overdue days when nothing is past due", func() {
			repo.totals[1] = tenantTotals{
				invoiced: 1500000,
				due:      timeptr(time.Now().UTC().AddDate(0, 0, 5)),
			}

			summary, err := service.ForTenant(context.Background(), 1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(summary.OverdueDays).To(gomega.Equal(0))
		})

		ginkgo.It("should count days past the latest unsettled due date", func() {
			repo.totals[1] = tenantTotals{
				invoiced: 1500000,
				due:      timeptr(time.Now().UTC().AddDate(0, 0, -10)),
			}

			summary, err := service.ForTenant(context.Background(), 1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(summary.OverdueDays).To(gomega.BeNumerically("~", 10, 1))
		})

		ginkgo.It("should not look at due dates when the balance is settled", func() {
			repo.totals[1] = tenantTotals{
				invoiced: 1500000,
				approved: 1500000,
				due:      timeptr(time.Now().UTC().AddDate(0, 0, -30)),
			}

			summary, err := service.ForTenant(context.Background(), 1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(summary.Outstanding).To(gomega.BeZero())
			gomega.Expect(summary.OverdueDays).To(gomega.BeZero())
		})

		ginkgo.It("should report zero for a tenant with no invoices", func() {
			summary, err := service.ForTenant(context.Background(), 1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(summary.Outstanding).To(gomega.BeZero())
			gomega.Expect(summary.OverdueDays).To(gomega.BeZero())
		})
	})

	ginkgo.Describe("RecalculateAll", func() {
		ginkgo.It("should store a whole summary row per active tenant", func() {
			repo.totals[1] = tenantTotals{invoiced: 3000000, approved: 1000000}
			repo.totals[2] = tenantTotals{invoiced: 1750000}

			count, err := service.RecalculateAll(context.Background())

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(2))
			gomega.Expect(repo.saved[1].Outstanding).To(gomega.Equal(int64(2000000)))
			gomega.Expect(repo.saved[2].Outstanding).To(gomega.Equal(int64(1750000)))
			gomega.Expect(repo.saved[1].ComputedAt).To(gomega.Equal(repo.saved[2].ComputedAt))
		})
	})
})
