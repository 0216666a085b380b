package messaging

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/dormitory-management/internal"
)

type capturedRequest struct {
	Path          string
	Authorization string
	Body          map[string]interface{}
}

var _ = ginkgo.Describe("Bridge", func() {
	var (
		bridge   *Bridge
		server   *httptest.Server
		repo     *mockSettingsRepo
		mu       sync.Mutex
		requests []capturedRequest
		status   int
	)

	lastRequest := func() capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		gomega.Expect(requests).ToNot(gomega.BeEmpty())
		return requests[len(requests)-1]
	}

	ginkgo.BeforeEach(func() {
		status = http.StatusOK
		requests = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(r.Body)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			var body map[string]interface{}
			gomega.Expect(json.Unmarshal(raw, &body)).To(gomega.Succeed())

			mu.Lock()
			requests = append(requests, capturedRequest{
				Path:          r.URL.Path,
				Authorization: r.Header.Get("Authorization"),
				Body:          body,
			})
			code := status
			mu.Unlock()

			w.WriteHeader(code)
		}))

		repo = &mockSettingsRepo{settings: &Settings{
			ChannelID: "chan-1", Secret: "webhook-secret", Token: "access-token",
		}}
		cache := NewSettingsCache(repo, time.Minute, slog.Default())
		bridge = NewBridge(cache, BridgeConfig{
			APIBaseURL:  server.URL,
			SendTimeout: 2 * time.Second,
		}, slog.Default())
	})

	ginkgo.AfterEach(func() {
		server.Close()
	})

	ginkgo.Describe("Push", func() {
		ginkgo.It("should post a bearer-authenticated text message to the push endpoint", func() {
			err := bridge.Push(context.Background(), "U-abc123", "your invoice is ready")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			req := lastRequest()
			gomega.Expect(req.Path).To(gomega.Equal("/push"))
			gomega.Expect(req.Authorization).To(gomega.Equal("Bearer access-token"))
			gomega.Expect(req.Body["to"]).To(gomega.Equal("U-abc123"))

			messages, ok := req.Body["messages"].([]interface{})
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(messages).To(gomega.HaveLen(1))
			first := messages[0].(map[string]interface{})
			gomega.Expect(first["type"]).To(gomega.Equal("text"))
			gomega.Expect(first["text"]).To(gomega.Equal("your invoice is ready"))
		})

		ginkgo.It("should surface a delivery error when the channel rejects the call", func() {
			mu.Lock()
			status = http.StatusTooManyRequests
			mu.Unlock()

			err := bridge.Push(context.Background(), "U-abc123", "hello")

			gomega.Expect(err).To(gomega.HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeDeliveryFailed))
		})

		ginkgo.It("should refuse to send without a configured token", func() {
			repo.settings = &Settings{ChannelID: "chan-1", Secret: "webhook-secret"}

			err := bridge.Push(context.Background(), "U-abc123", "hello")

			gomega.Expect(err).To(gomega.Equal(apperrors.ErrChannelNotConfigured))
			mu.Lock()
			defer mu.Unlock()
			gomega.Expect(requests).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Reply", func() {
		ginkgo.It("should post the reply token to the reply endpoint", func() {
			err := bridge.Reply(context.Background(), "reply-token-1", "pong")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			req := lastRequest()
			gomega.Expect(req.Path).To(gomega.Equal("/reply"))
			gomega.Expect(req.Body["replyToken"]).To(gomega.Equal("reply-token-1"))
		})
	})

	ginkgo.Describe("Broadcast", func() {
		ginkgo.It("should post to the broadcast endpoint without a recipient", func() {
			err := bridge.Broadcast(context.Background(), "water outage tomorrow")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			req := lastRequest()
			gomega.Expect(req.Path).To(gomega.Equal("/broadcast"))
			gomega.Expect(req.Body).ToNot(gomega.HaveKey("to"))
		})
	})

	ginkgo.Describe("VerifySignature", func() {
		sign := func(secret string, body []byte) string {
			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			return base64.StdEncoding.EncodeToString(mac.Sum(nil))
		}

		ginkgo.It("should accept a signature computed with the configured secret", func() {
			body := []byte(`{"events":[]}`)

			ok := bridge.VerifySignature(body, sign("webhook-secret", body))

			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a signature computed with another secret", func() {
			body := []byte(`{"events":[]}`)

			ok := bridge.VerifySignature(body, sign("wrong-secret", body))

			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("should reject a signature over different bytes", func() {
			ok := bridge.VerifySignature([]byte(`{"events":[1]}`), sign("webhook-secret", []byte(`{"events":[]}`)))

			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("should reject a missing signature header", func() {
			gomega.Expect(bridge.VerifySignature([]byte("body"), "")).To(gomega.BeFalse())
		})

		ginkgo.It("should reject a header that is not valid base64", func() {
			gomega.Expect(bridge.VerifySignature([]byte("body"), "!!not-base64!!")).To(gomega.BeFalse())
		})

		ginkgo.It("should reject everything while no secret is configured", func() {
			repo.settings = nil
			fresh := NewSettingsCache(repo, time.Minute, slog.Default())
			unconfigured := NewBridge(fresh, BridgeConfig{APIBaseURL: server.URL}, slog.Default())
			body := []byte(`{"events":[]}`)

			gomega.Expect(unconfigured.VerifySignature(body, sign("webhook-secret", body))).To(gomega.BeFalse())
		})

		ginkgo.It("should pass everything when verification is disabled", func() {
			insecure := NewBridge(bridge.settings, BridgeConfig{
				APIBaseURL:         server.URL,
				InsecureSkipVerify: true,
			}, slog.Default())

			gomega.Expect(insecure.VerifySignature([]byte("anything"), "garbage")).To(gomega.BeTrue())
		})
	})
})
