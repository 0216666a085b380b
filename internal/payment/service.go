package payment

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/dormitory-management/internal"
	"github.com/frahmantamala/dormitory-management/internal/invoice"
)

// Repository defines the data access methods for payment records.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	// GetNewestPending returns the most recent pending payment for the
	// invoice, or nil when there is none.
	GetNewestPending(ctx context.Context, invoiceID int64) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*Payment, error)
}

// InvoiceLedger is the slice of the invoice repository the recorder needs
// when a tenant submits proof.
type InvoiceLedger interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*invoice.Invoice, error)
	Update(ctx context.Context, inv *invoice.Invoice) error
}

type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo   Repository
	ledger InvoiceLedger
	txm    TxManager
	logger *slog.Logger
}

func NewService(repo Repository, ledger InvoiceLedger, txm TxManager, logger *slog.Logger) *Service {
	return &Service{repo: repo, ledger: ledger, txm: txm, logger: logger}
}

// RecordProof registers a tenant's payment proof as a pending payment and
// moves an unpaid or overdue invoice to pending review. Paid and canceled
// invoices no longer accept proof.
func (s *Service) RecordProof(ctx context.Context, invoiceID int64, tenantID *int64, dto *RecordProofDTO) (*RecordProofResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var result *RecordProofResult
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		inv, err := s.ledger.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return errors.NewInternalError("failed to load invoice", err)
		}
		if inv == nil {
			return errors.ErrInvoiceNotFound
		}
		if tenantID != nil && inv.TenantID != *tenantID {
			// Another tenant's invoice looks like no invoice at all.
			return errors.ErrInvoiceNotFound
		}

		switch inv.Status {
		case invoice.StatusPaid, invoice.StatusCanceled:
			return errors.NewConflictError("invoice no longer accepts payment proof", errors.ErrCodeInvalidInvoiceStatus)
		case invoice.StatusUnpaid, invoice.StatusOverdue:
			inv.Status = invoice.StatusPending
			if dto.ProofURL != nil {
				inv.ProofURL = dto.ProofURL
			}
			if err := s.ledger.Update(ctx, inv); err != nil {
				return errors.NewInternalError("failed to update invoice", err)
			}
		default:
			// pending or partial: the prior proof stands, record another
			// payment attempt without touching invoice state.
			if dto.ProofURL != nil {
				inv.ProofURL = dto.ProofURL
				if err := s.ledger.Update(ctx, inv); err != nil {
					return errors.NewInternalError("failed to update invoice", err)
				}
			}
		}

		p := &Payment{
			InvoiceID: inv.ID,
			Amount:    dto.Amount,
			Status:    StatusPending,
			ProofURL:  dto.ProofURL,
			PaidAt:    time.Now().UTC(),
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return errors.NewInternalError("failed to create payment", err)
		}

		result = &RecordProofResult{
			PaymentID:     p.ID,
			InvoiceID:     inv.ID,
			InvoiceStatus: inv.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment proof recorded",
		"payment_id", result.PaymentID, "invoice_id", result.InvoiceID)
	return result, nil
}

// ApprovePending marks the newest pending payment approved. When the invoice
// is approved without any submitted proof, a synthetic approved record is
// written so the ledger and the payment history stay consistent; the
// verifying staff member is recorded as the actor on both paths.
func (s *Service) ApprovePending(ctx context.Context, invoiceID, amount int64, actorID *int64, at time.Time) (int64, error) {
	pending, err := s.repo.GetNewestPending(ctx, invoiceID)
	if err != nil {
		return 0, errors.NewInternalError("failed to load pending payment", err)
	}

	if pending != nil {
		pending.Status = StatusApproved
		pending.VerifiedBy = actorID
		if err := s.repo.Update(ctx, pending); err != nil {
			return 0, errors.NewInternalError("failed to approve payment", err)
		}
		return pending.ID, nil
	}

	synthetic := &Payment{
		InvoiceID:  invoiceID,
		Amount:     amount,
		Status:     StatusApproved,
		VerifiedBy: actorID,
		PaidAt:     at,
	}
	if err := s.repo.Create(ctx, synthetic); err != nil {
		return 0, errors.NewInternalError("failed to create payment", err)
	}
	return synthetic.ID, nil
}

// RejectPending marks the newest pending payment rejected. No pending
// payment is not an error: rejecting an invoice that never had proof
// submitted only touches the invoice.
func (s *Service) RejectPending(ctx context.Context, invoiceID int64, actorID *int64) error {
	pending, err := s.repo.GetNewestPending(ctx, invoiceID)
	if err != nil {
		return errors.NewInternalError("failed to load pending payment", err)
	}
	if pending == nil {
		return nil
	}

	pending.Status = StatusRejected
	pending.VerifiedBy = actorID
	if err := s.repo.Update(ctx, pending); err != nil {
		return errors.NewInternalError("failed to reject payment", err)
	}
	return nil
}

// ListByInvoice returns the payment history for an invoice, newest first.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID int64) ([]*Payment, error) {
	payments, err := s.repo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list payments", err)
	}
	return payments, nil
}
