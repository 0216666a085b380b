package linking

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	errors "github.com/frahmantamala/dormitory-management/internal"
)

// InboundEvent is one message event from the external channel, already
// signature-verified.
type InboundEvent struct {
	ReplyToken string
	ExternalID string
	Text       string
}

// ConsumerAPI is the slice of the linking service the interpreter needs.
type ConsumerAPI interface {
	Consume(ctx context.Context, code, externalID string) (int64, error)
	TenantForExternalID(ctx context.Context, externalID string) (int64, error)
}

// command is one tagged matcher in the interpreter's fixed evaluation order.
type command struct {
	name    string
	match   func(text string) (string, bool)
	respond func(ctx context.Context, event InboundEvent, arg string) string
}

// Interpreter maps inbound chat messages to replies. Matchers run in a
// fixed order (ping, identity echo, link code, fallback echo) and every
// inbound event produces exactly one reply.
type Interpreter struct {
	commands []command
	logger   *slog.Logger
}

var linkCodePattern = regexp.MustCompile(`^(?:LINK\s+)?([A-Z2-9]{6})$`)

func NewInterpreter(svc ConsumerAPI, logger *slog.Logger) *Interpreter {
	it := &Interpreter{logger: logger}

	it.commands = []command{
		{
			name: "ping",
			match: func(text string) (string, bool) {
				return "", strings.EqualFold(text, "ping")
			},
			respond: func(ctx context.Context, event InboundEvent, _ string) string {
				return "pong"
			},
		},
		{
			name: "whoami",
			match: func(text string) (string, bool) {
				return "", strings.EqualFold(text, "whoami") || strings.EqualFold(text, "id")
			},
			respond: func(ctx context.Context, event InboundEvent, _ string) string {
				tenantID, err := svc.TenantForExternalID(ctx, event.ExternalID)
				if err != nil {
					logger.Error("whoami lookup failed", "error", err, "external_id", event.ExternalID)
				}
				if tenantID > 0 {
					return fmt.Sprintf("Your chat id is %s, linked to tenant #%d.", event.ExternalID, tenantID)
				}
				return fmt.Sprintf("Your chat id is %s. This account is not linked yet.", event.ExternalID)
			},
		},
		{
			name: "link",
			match: func(text string) (string, bool) {
				m := linkCodePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(text)))
				if m == nil || !ValidCode(m[1]) {
					return "", false
				}
				return m[1], true
			},
			respond: func(ctx context.Context, event InboundEvent, code string) string {
				tenantID, err := svc.Consume(ctx, code, event.ExternalID)
				if err != nil {
					if appErr, ok := errors.IsAppError(err); ok {
						switch appErr.Code {
						case errors.ErrCodeLinkTokenNotFound:
							return "That code was not recognized. Please request a new link code from the dormitory app."
						case errors.ErrCodeLinkTokenUsed:
							return "That code has already been used. Please request a new link code."
						case errors.ErrCodeLinkTokenExpired:
							return "That code has expired. Codes are valid for 10 minutes; please request a new one."
						}
					}
					logger.Error("link code consumption failed", "error", err, "external_id", event.ExternalID)
					return "Something went wrong while linking your account. Please try again."
				}
				return fmt.Sprintf("Your chat account is now linked to tenant #%d. You will receive billing updates here.", tenantID)
			},
		},
	}

	return it
}

// Handle returns the reply for one inbound event. The fallback echo makes
// this total: there is a reply for every input.
func (it *Interpreter) Handle(ctx context.Context, event InboundEvent) string {
	text := strings.TrimSpace(event.Text)

	for _, cmd := range it.commands {
		if arg, ok := cmd.match(text); ok {
			it.logger.Debug("inbound command matched", "command", cmd.name, "external_id", event.ExternalID)
			return cmd.respond(ctx, event, arg)
		}
	}

	return "You said: " + text
}
