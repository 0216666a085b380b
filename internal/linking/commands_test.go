package linking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Interpreter", func() {
	var (
		interp *Interpreter
		svc    *Service
		repo   *mockLinkingRepo
	)

	handle := func(externalID, text string) string {
		return interp.Handle(context.Background(), InboundEvent{
			ReplyToken: "rt-1",
			ExternalID: externalID,
			Text:       text,
		})
	}

	ginkgo.BeforeEach(func() {
		repo = newMockLinkingRepo()
		svc = NewService(repo, passTxManager{}, slog.Default())
		interp = NewInterpreter(svc, slog.Default())
	})

	ginkgo.It("should answer ping with pong", func() {
		gomega.Expect(handle("U-abc123", "ping")).To(gomega.Equal("pong"))
		gomega.Expect(handle("U-abc123", "PING")).To(gomega.Equal("pong"))
	})

	ginkgo.It("should echo the chat id for an unlinked account", func() {
		reply := handle("U-abc123", "whoami")

		gomega.Expect(reply).To(gomega.ContainSubstring("U-abc123"))
		gomega.Expect(reply).To(gomega.ContainSubstring("not linked"))
	})

	ginkgo.It("should name the linked tenant on whoami", func() {
		gomega.Expect(repo.UpsertBinding(context.Background(), 3, "U-abc123", time.Now().UTC())).To(gomega.Succeed())

		reply := handle("U-abc123", "id")

		gomega.Expect(reply).To(gomega.ContainSubstring("tenant #3"))
	})

	ginkgo.It("should redeem an explicit LINK command", func() {
		issued, err := svc.IssueToken(context.Background(), 7, 3)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		reply := handle("U-abc123", "LINK "+issued.Code)

		gomega.Expect(reply).To(gomega.ContainSubstring("linked to tenant #3"))
	})

	ginkgo.It("should redeem a bare code regardless of case and whitespace", func() {
		issued, err := svc.IssueToken(context.Background(), 7, 3)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		reply := handle("U-abc123", "  "+strings.ToLower(issued.Code)+"  ")

		gomega.Expect(reply).To(gomega.ContainSubstring("linked to tenant #3"))
	})

	ginkgo.It("should explain an unknown code", func() {
		reply := handle("U-abc123", "ZZZZZZ")

		gomega.Expect(reply).To(gomega.ContainSubstring("not recognized"))
	})

	ginkgo.It("should explain an already used code", func() {
		issued, err := svc.IssueToken(context.Background(), 7, 3)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		_, err = svc.Consume(context.Background(), issued.Code, "U-first")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		reply := handle("U-abc123", issued.Code)

		gomega.Expect(reply).To(gomega.ContainSubstring("already been used"))
	})

	ginkgo.It("should explain an expired code", func() {
		repo.seedToken(&LinkToken{
			Code:      "ABC234",
			UserID:    7,
			TenantID:  3,
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
			CreatedAt: time.Now().UTC().Add(-11 * time.Minute),
		})

		reply := handle("U-abc123", "ABC234")

		gomega.Expect(reply).To(gomega.ContainSubstring("expired"))
	})

	ginkgo.It("should echo anything else back", func() {
		gomega.Expect(handle("U-abc123", "good morning")).To(gomega.Equal("You said: good morning"))
	})

	ginkgo.It("should not mistake words outside the code alphabet for codes", func() {
		gomega.Expect(handle("U-abc123", "little")).To(gomega.Equal("You said: little"))
	})
})
