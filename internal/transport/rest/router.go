package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/dormitory-management/internal/auth"
	"github.com/frahmantamala/dormitory-management/internal/debt"
	"github.com/frahmantamala/dormitory-management/internal/invoice"
	"github.com/frahmantamala/dormitory-management/internal/linking"
	"github.com/frahmantamala/dormitory-management/internal/messaging"
	"github.com/frahmantamala/dormitory-management/internal/notification"
	"github.com/frahmantamala/dormitory-management/internal/payment"
	"github.com/frahmantamala/dormitory-management/internal/transport/middleware"
	"github.com/frahmantamala/dormitory-management/internal/transport/swagger"
)

type Handlers struct {
	Invoice      *invoice.Handler
	Payment      *payment.Handler
	Debt         *debt.Handler
	Notification *notification.Handler
	Messaging    *messaging.Handler
	Linking      *linking.Handler
	Webhook      *linking.WebhookHandler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authMW *auth.Middleware, handlers Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Channel webhook stays outside auth and outside the logging
		// middleware: signature verification needs the raw body.
		if handlers.Webhook != nil {
			r.Post("/messaging/webhook", handlers.Webhook.Receive)
		}

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.LoggingMiddleware(logger))
			pr.Use(authMW.Authenticate)

			if handlers.Invoice != nil {
				pr.Route("/invoices", func(ir chi.Router) {
					ir.Get("/", handlers.Invoice.List)
					ir.Get("/{id}", handlers.Invoice.GetByID)

					if handlers.Payment != nil {
						ir.Post("/{id}/payments", handlers.Payment.RecordProof)
					}

					ir.Group(func(mr chi.Router) {
						mr.Use(authMW.RequirePermission("manage_invoices"))
						mr.Post("/", handlers.Invoice.Issue)
						mr.Post("/batch", handlers.Invoice.IssueBatch)
						mr.Patch("/{id}/decide", handlers.Invoice.Decide)
						mr.Delete("/{id}", handlers.Invoice.Cancel)
						mr.Post("/{id}/resend", handlers.Invoice.Resend)
						if handlers.Payment != nil {
							mr.Get("/{id}/payments", handlers.Payment.ListByInvoice)
						}
					})
				})
			}

			if handlers.Debt != nil {
				pr.Get("/tenants/{id}/debt", handlers.Debt.ForTenant)
				pr.Group(func(mr chi.Router) {
					mr.Use(authMW.RequirePermission("manage_invoices"))
					mr.Post("/debts/recalculate", handlers.Debt.RecalculateAll)
				})
			}

			if handlers.Notification != nil {
				pr.Route("/notifications", func(nr chi.Router) {
					nr.Get("/", handlers.Notification.List)
					nr.Patch("/{id}/read", handlers.Notification.MarkRead)
					nr.Post("/read-all", handlers.Notification.MarkAllRead)
					nr.Delete("/read", handlers.Notification.ClearRead)
				})
			}

			if handlers.Linking != nil {
				pr.Post("/link-token", handlers.Linking.IssueToken)
			}

			if handlers.Messaging != nil {
				pr.Group(func(mr chi.Router) {
					mr.Use(authMW.RequirePermission("manage_settings"))
					mr.Get("/messaging/settings", handlers.Messaging.GetSettings)
					mr.Put("/messaging/settings", handlers.Messaging.UpdateSettings)
				})
			}
		})
	})
}
