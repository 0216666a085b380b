package linking

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type stubVerifier struct {
	secret string
}

func (v stubVerifier) VerifySignature(body []byte, signatureHeader string) bool {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	provided, err := base64.StdEncoding.DecodeString(signatureHeader)
	if err != nil {
		return false
	}
	return hmac.Equal(provided, mac.Sum(nil))
}

type recordingReplier struct {
	mu      sync.Mutex
	replies []string
	tokens  []string
}

func (r *recordingReplier) Reply(ctx context.Context, replyToken, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, replyToken)
	r.replies = append(r.replies, text)
	return nil
}

func (r *recordingReplier) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}

var _ = ginkgo.Describe("WebhookHandler", func() {
	const secret = "webhook-secret"

	var (
		handler *WebhookHandler
		replier *recordingReplier
	)

	sign := func(body []byte) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return base64.StdEncoding.EncodeToString(mac.Sum(nil))
	}

	post := func(body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messaging/webhook", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set("X-Channel-Signature", signature)
		}
		rec := httptest.NewRecorder()
		handler.Receive(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		repo := newMockLinkingRepo()
		svc := NewService(repo, passTxManager{}, slog.Default())
		interp := NewInterpreter(svc, slog.Default())
		replier = &recordingReplier{}
		handler = NewWebhookHandler(stubVerifier{secret: secret}, interp, replier, slog.Default())
	})

	ginkgo.It("should reject a body whose signature does not match", func() {
		body := []byte(`{"events":[]}`)

		rec := post(body, sign([]byte("tampered")))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(replier.sent()).To(gomega.BeEmpty())
	})

	ginkgo.It("should reject a request without a signature header", func() {
		rec := post([]byte(`{"events":[]}`), "")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should accept a well-signed empty batch", func() {
		body := []byte(`{"events":[]}`)

		rec := post(body, sign(body))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("should swallow malformed JSON once the signature checks out", func() {
		body := []byte(`{"events":`)

		rec := post(body, sign(body))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(replier.sent()).To(gomega.BeEmpty())
	})

	ginkgo.It("should reply to each text event using its reply token", func() {
		body := []byte(`{"events":[
			{"type":"message","replyToken":"rt-1","source":{"userId":"U-abc123"},"message":{"type":"text","text":"ping"}},
			{"type":"message","replyToken":"rt-2","source":{"userId":"U-abc123"},"message":{"type":"text","text":"hello"}}
		]}`)

		rec := post(body, sign(body))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(replier.sent()).To(gomega.Equal([]string{"pong", "You said: hello"}))
		replier.mu.Lock()
		defer replier.mu.Unlock()
		gomega.Expect(replier.tokens).To(gomega.Equal([]string{"rt-1", "rt-2"}))
	})

	ginkgo.It("should skip non-message and non-text events", func() {
		body := []byte(`{"events":[
			{"type":"follow","replyToken":"rt-1","source":{"userId":"U-abc123"}},
			{"type":"message","replyToken":"rt-2","source":{"userId":"U-abc123"},"message":{"type":"sticker"}}
		]}`)

		rec := post(body, sign(body))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(replier.sent()).To(gomega.BeEmpty())
	})

	ginkgo.It("should skip text events missing a source user", func() {
		body := []byte(`{"events":[
			{"type":"message","replyToken":"rt-1","source":{},"message":{"type":"text","text":"ping"}}
		]}`)

		rec := post(body, sign(body))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(replier.sent()).To(gomega.BeEmpty())
	})

	ginkgo.It("should not reply when the event carries no reply token", func() {
		body := []byte(`{"events":[
			{"type":"message","source":{"userId":"U-abc123"},"message":{"type":"text","text":"ping"}}
		]}`)

		rec := post(body, sign(body))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(replier.sent()).To(gomega.BeEmpty())
	})
})
