package linking

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dormitory-management/internal/transport"
)

const signatureHeader = "X-Channel-Signature"

// SignatureVerifier checks an inbound webhook body against its signature
// header. The messaging bridge implements it.
type SignatureVerifier interface {
	VerifySignature(body []byte, signatureHeader string) bool
}

// Replier sends a reply bound to an inbound event's reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

type webhookPayload struct {
	Events []webhookEvent `json:"events"`
}

// WebhookHandler receives channel webhook callbacks, verifies their
// signature and hands text events to the command interpreter.
type WebhookHandler struct {
	*transport.BaseHandler
	Verifier    SignatureVerifier
	Interpreter *Interpreter
	Replier     Replier
	Logger      *slog.Logger
}

func NewWebhookHandler(verifier SignatureVerifier, interpreter *Interpreter, replier Replier, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		Verifier:    verifier,
		Interpreter: interpreter,
		Replier:     replier,
		Logger:      logger,
	}
}

// Receive handles POST /webhook/channel. Once the signature checks out the
// endpoint always answers 200: the channel provider retries non-2xx
// responses and a per-event failure should not replay the whole batch.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error("webhook: failed to read body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	if !h.Verifier.VerifySignature(body, r.Header.Get(signatureHeader)) {
		h.Logger.Warn("webhook: signature verification failed")
		h.WriteError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.Logger.Error("webhook: malformed payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, event := range payload.Events {
		h.handleEvent(r.Context(), event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event webhookEvent) {
	if event.Type != "message" || event.Message.Type != "text" {
		return
	}
	if event.Source.UserID == "" {
		h.Logger.Warn("webhook: text event without source user, skipping")
		return
	}

	reply := h.Interpreter.Handle(ctx, InboundEvent{
		ReplyToken: event.ReplyToken,
		ExternalID: event.Source.UserID,
		Text:       event.Message.Text,
	})
	if reply == "" || event.ReplyToken == "" {
		return
	}

	if err := h.Replier.Reply(ctx, event.ReplyToken, reply); err != nil {
		h.Logger.Error("webhook: failed to send reply",
			"external_id", event.Source.UserID, "error", err)
	}
}
