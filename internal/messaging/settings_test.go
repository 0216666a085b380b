package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/dormitory-management/internal"
)

var _ = ginkgo.Describe("SettingsCache", func() {
	var (
		cache *SettingsCache
		repo  *mockSettingsRepo
	)

	ginkgo.BeforeEach(func() {
		repo = &mockSettingsRepo{settings: &Settings{
			ChannelID: "chan-1", Secret: "s3cret", Token: "t0ken",
		}}
		cache = NewSettingsCache(repo, 200*time.Millisecond, slog.Default())
	})

	ginkgo.It("should serve repeated reads from cache within the TTL", func() {
		for i := 0; i < 5; i++ {
			s, err := cache.Get(context.Background())
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(s.ChannelID).To(gomega.Equal("chan-1"))
		}

		gomega.Expect(repo.calls()).To(gomega.Equal(1))
	})

	ginkgo.It("should hit the repository again after the TTL expires", func() {
		_, err := cache.Get(context.Background())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gomega.Eventually(func() int {
			_, _ = cache.Get(context.Background())
			return repo.calls()
		}, time.Second, 50*time.Millisecond).Should(gomega.BeNumerically(">", 1))
	})

	ginkgo.It("should make an update visible immediately through invalidation", func() {
		_, err := cache.Get(context.Background())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gomega.Expect(cache.Update(context.Background(), &Settings{
			ChannelID: "chan-2", Secret: "new-secret", Token: "new-token",
		})).To(gomega.Succeed())

		s, err := cache.Get(context.Background())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(s.ChannelID).To(gomega.Equal("chan-2"))
	})

	ginkgo.It("should answer not configured when no row exists", func() {
		repo.settings = nil

		_, err := cache.Get(context.Background())

		gomega.Expect(err).To(gomega.Equal(apperrors.ErrChannelNotConfigured))
	})

	ginkgo.It("should not invalidate the cache when the save fails", func() {
		_, err := cache.Get(context.Background())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo.saveErr = errors.New("db down")
		err = cache.Update(context.Background(), &Settings{ChannelID: "chan-3"})
		gomega.Expect(err).To(gomega.HaveOccurred())

		s, err := cache.Get(context.Background())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(s.ChannelID).To(gomega.Equal("chan-1"))
		gomega.Expect(repo.calls()).To(gomega.Equal(1))
	})
})
