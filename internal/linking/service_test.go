package linking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/dormitory-management/internal"
)

var _ = ginkgo.Describe("Linking Service", func() {
	var (
		svc  *Service
		repo *mockLinkingRepo
	)

	ginkgo.BeforeEach(func() {
		repo = newMockLinkingRepo()
		svc = NewService(repo, passTxManager{}, slog.Default())
	})

	ginkgo.Describe("IssueToken", func() {
		ginkgo.It("should issue a readable 6-character code valid for ten minutes", func() {
			before := time.Now().UTC()

			issued, err := svc.IssueToken(context.Background(), 7, 3)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ValidCode(issued.Code)).To(gomega.BeTrue())
			gomega.Expect(issued.ExpiresAt).To(gomega.BeTemporally("~", before.Add(10*time.Minute), 5*time.Second))
		})

		ginkgo.It("should leave older codes for the same tenant redeemable", func() {
			first, err := svc.IssueToken(context.Background(), 7, 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = svc.IssueToken(context.Background(), 7, 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			tenantID, err := svc.Consume(context.Background(), first.Code, "U-abc123")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tenantID).To(gomega.Equal(int64(3)))
		})
	})

	ginkgo.Describe("Consume", func() {
		ginkgo.It("should bind the tenant to the external identity", func() {
			issued, err := svc.IssueToken(context.Background(), 7, 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			tenantID, err := svc.Consume(context.Background(), issued.Code, "U-abc123")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tenantID).To(gomega.Equal(int64(3)))

			externalID, err := svc.ExternalIDForTenant(context.Background(), 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(externalID).To(gomega.Equal("U-abc123"))
		})

		ginkgo.It("should reject an unknown code", func() {
			_, err := svc.Consume(context.Background(), "ZZZZZZ", "U-abc123")

			gomega.Expect(err).To(gomega.Equal(apperrors.ErrLinkTokenNotFound))
		})

		ginkgo.It("should reject a code that was already redeemed", func() {
			issued, err := svc.IssueToken(context.Background(), 7, 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = svc.Consume(context.Background(), issued.Code, "U-abc123")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = svc.Consume(context.Background(), issued.Code, "U-other")
			gomega.Expect(err).To(gomega.Equal(apperrors.ErrLinkTokenUsed))
		})

		ginkgo.It("should reject an expired code without creating a binding", func() {
			now := time.Now().UTC()
			repo.seedToken(&LinkToken{
				Code:      "ABC234",
				UserID:    7,
				TenantID:  3,
				ExpiresAt: now.Add(-time.Minute),
				CreatedAt: now.Add(-11 * time.Minute),
			})

			_, err := svc.Consume(context.Background(), "ABC234", "U-abc123")

			gomega.Expect(err).To(gomega.Equal(apperrors.ErrLinkTokenExpired))
			externalID, err := svc.ExternalIDForTenant(context.Background(), 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(externalID).To(gomega.BeEmpty())
		})

		ginkgo.It("should let exactly one of many concurrent redemptions win", func() {
			issued, err := svc.IssueToken(context.Background(), 7, 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			const attempts = 20
			var wg sync.WaitGroup
			errs := make([]error, attempts)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = svc.Consume(context.Background(), issued.Code, "U-abc123")
				}(i)
			}
			wg.Wait()

			winners := 0
			for _, e := range errs {
				if e == nil {
					winners++
				} else {
					gomega.Expect(e).To(gomega.Equal(apperrors.ErrLinkTokenUsed))
				}
			}
			gomega.Expect(winners).To(gomega.Equal(1))
		})

		ginkgo.It("should move an external identity to the newest tenant it links", func() {
			first, err := svc.IssueToken(context.Background(), 7, 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			second, err := svc.IssueToken(context.Background(), 8, 4)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = svc.Consume(context.Background(), first.Code, "U-abc123")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = svc.Consume(context.Background(), second.Code, "U-abc123")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			tenantID, err := svc.TenantForExternalID(context.Background(), "U-abc123")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tenantID).To(gomega.Equal(int64(4)))

			stale, err := svc.ExternalIDForTenant(context.Background(), 3)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stale).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("GenerateCode", func() {
		ginkgo.It("should never produce ambiguous characters", func() {
			for i := 0; i < 50; i++ {
				code, err := GenerateCode()
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(code).To(gomega.HaveLen(6))
				gomega.Expect(code).ToNot(gomega.ContainSubstring("0"))
				gomega.Expect(code).ToNot(gomega.ContainSubstring("O"))
				gomega.Expect(code).ToNot(gomega.ContainSubstring("1"))
				gomega.Expect(code).ToNot(gomega.ContainSubstring("I"))
				gomega.Expect(code).ToNot(gomega.ContainSubstring("L"))
			}
		})
	})
})
