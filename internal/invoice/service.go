package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	errors "github.com/frahmantamala/dormitory-management/internal"
	"github.com/frahmantamala/dormitory-management/internal/notification"
	"github.com/frahmantamala/dormitory-management/internal/tenant"
)

// Repository defines the data access methods for invoices. Methods join the
// transaction carried in ctx when one is open.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	GetByTenantAndPeriod(ctx context.Context, tenantID int64, period string) (*Invoice, error)
	ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	NextNumber(ctx context.Context) (int64, error)
}

// TxManager runs a function inside one commit/rollback boundary.
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TenantDirectory is the read-only view of the tenant collaborator the
// ledger needs.
type TenantDirectory interface {
	GetActive(ctx context.Context, id int64) (*tenant.Info, error)
	ListActive(ctx context.Context) ([]*tenant.Info, error)
}

// PaymentRecorder is invoked under the ledger's row lock; implementations
// must not open their own transaction.
type PaymentRecorder interface {
	ApprovePending(ctx context.Context, invoiceID, amount int64, actorID *int64, at time.Time) (int64, error)
	RejectPending(ctx context.Context, invoiceID int64, actorID *int64) error
}

// Notifier raises a persisted notification; delivery is the notifier's
// problem and never fails the ledger.
type Notifier interface {
	Raise(ctx context.Context, tenantID int64, typ, title, body, refKind string, refID int64) int64
}

type Service struct {
	repo     Repository
	txm      TxManager
	tenants  TenantDirectory
	payments PaymentRecorder
	notifier Notifier
	logger   *slog.Logger
}

func NewService(repo Repository, txm TxManager, tenants TenantDirectory, payments PaymentRecorder, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		txm:      txm,
		tenants:  tenants,
		payments: payments,
		notifier: notifier,
		logger:   logger,
	}
}

// Issue allocates the next invoice number, inserts the invoice in status
// unpaid and raises invoice_issued after the transaction commits.
func (s *Service) Issue(ctx context.Context, dto IssueDTO) (*Invoice, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("invoice validation failed", "error", err, "tenant_id", dto.TenantID)
		return nil, err
	}

	t, err := s.tenants.GetActive(ctx, dto.TenantID)
	if err != nil {
		s.logger.Error("tenant lookup failed for issue", "error", err, "tenant_id", dto.TenantID)
		return nil, errors.ErrTenantNotFound
	}

	dueDate, err := dto.ResolveDueDate()
	if err != nil {
		return nil, errors.NewValidationFieldError("period", "invalid billing period", errors.ErrCodeInvalidPeriod)
	}

	now := time.Now().UTC()
	inv := &Invoice{
		TenantID:  dto.TenantID,
		RoomID:    t.RoomID,
		Period:    dto.Period,
		Amount:    dto.Amount,
		DueDate:   dueDate,
		Status:    StatusUnpaid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.txm.Transaction(ctx, func(ctx context.Context) error {
		seq, err := s.repo.NextNumber(ctx)
		if err != nil {
			return err
		}
		inv.Number = FormatNumber(seq)
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		s.logger.Error("failed to create invoice", "error", err, "tenant_id", dto.TenantID, "period", dto.Period)
		return nil, err
	}

	s.notifier.Raise(ctx, inv.TenantID, notification.TypeInvoiceIssued,
		fmt.Sprintf("Invoice %s issued", inv.Number),
		fmt.Sprintf("Invoice %s for period %s, amount IDR %d, due %s.", inv.Number, inv.Period, inv.Amount, inv.DueDate.Format("2006-01-02")),
		notification.RefInvoice, inv.ID)

	s.logger.Info("invoice issued",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"tenant_id", inv.TenantID,
		"period", inv.Period,
		"amount", inv.Amount)

	return inv, nil
}

// IssueForPeriod issues an invoice for every active tenant that does not
// have one for the period yet. Re-running it for the same period creates
// nothing new.
func (s *Service) IssueForPeriod(ctx context.Context, dto BatchIssueDTO) (*BatchIssueResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active tenants", "error", err)
		return nil, err
	}

	result := &BatchIssueResult{}
	for _, t := range tenants {
		existing, err := s.repo.GetByTenantAndPeriod(ctx, t.ID, dto.Period)
		if err != nil {
			s.logger.Error("failed to check existing invoice", "error", err, "tenant_id", t.ID, "period", dto.Period)
			return nil, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		amount := t.RoomPrice
		if dto.DefaultAmount != nil {
			amount = *dto.DefaultAmount
		}
		if amount <= 0 {
			s.logger.Warn("skipping tenant without resolvable amount", "tenant_id", t.ID, "period", dto.Period)
			result.Skipped++
			continue
		}

		if _, err := s.Issue(ctx, IssueDTO{
			TenantID: t.ID,
			Period:   dto.Period,
			Amount:   amount,
			DueDay:   dto.DueDay,
		}); err != nil {
			s.logger.Error("batch issue failed for tenant", "error", err, "tenant_id", t.ID, "period", dto.Period)
			return nil, err
		}
		result.Created++
	}

	s.logger.Info("batch issue finished", "period", dto.Period, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// Decide approves or rejects the invoice under a row lock. On approve the
// newest pending payment is approved, or a synthetic approved payment is
// recorded for a manual/cash settlement; either way the deciding actor is
// kept for the audit trail.
func (s *Service) Decide(ctx context.Context, invoiceID int64, action string, actorID *int64) (*DecideResult, error) {
	dto := DecideDTO{Action: action}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &DecideResult{InvoiceID: invoiceID}

	// The closure runs after commit, so it must not touch the
	// transaction-scoped ctx the callback shadows below.
	var notify func(ctx context.Context)

	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return errors.ErrInvoiceNotFound
		}

		switch action {
		case ActionApprove:
			if !inv.CanBeApproved() {
				return errors.NewConflictError(
					fmt.Sprintf("cannot approve invoice in status %s", inv.Status),
					errors.ErrCodeInvalidInvoiceStatus)
			}
			paymentID, err := s.payments.ApprovePending(ctx, inv.ID, inv.Amount, actorID, now)
			if err != nil {
				return err
			}
			inv.MarkPaid(now)
			result.PaymentID = paymentID
			notify = func(ctx context.Context) {
				s.notifier.Raise(ctx, inv.TenantID, notification.TypePaymentApproved,
					fmt.Sprintf("Payment for %s approved", inv.Number),
					fmt.Sprintf("Your payment for invoice %s (IDR %d) has been approved. Thank you.", inv.Number, inv.Amount),
					notification.RefInvoice, inv.ID)
			}

		case ActionReject:
			if !inv.CanBeRejected() {
				return errors.NewConflictError(
					fmt.Sprintf("cannot reject invoice in status %s", inv.Status),
					errors.ErrCodeInvalidInvoiceStatus)
			}
			if err := s.payments.RejectPending(ctx, inv.ID, actorID); err != nil {
				return err
			}
			inv.RecomputeAfterReject(now)
			notify = func(ctx context.Context) {
				s.notifier.Raise(ctx, inv.TenantID, notification.TypePaymentRejected,
					fmt.Sprintf("Payment for %s rejected", inv.Number),
					fmt.Sprintf("Your payment proof for invoice %s was rejected. Please submit a new proof of payment.", inv.Number),
					notification.RefInvoice, inv.ID)
			}
		}

		result.Status = inv.Status
		return s.repo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if notify != nil {
		notify(ctx)
	}

	s.logger.Info("invoice decided",
		"invoice_id", invoiceID,
		"action", action,
		"new_status", result.Status,
		"payment_id", result.PaymentID)

	return result, nil
}

// Cancel moves the invoice to canceled. Canceling an already-canceled
// invoice is a no-op; any other terminal status conflicts.
func (s *Service) Cancel(ctx context.Context, idOrNumber string) (*Invoice, error) {
	var canceled *Invoice
	transitioned := false

	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		inv, err := s.lookupForUpdate(ctx, idOrNumber)
		if err != nil {
			return err
		}

		if inv.Status == StatusCanceled {
			canceled = inv
			return nil
		}
		if !inv.CanBeCanceled() {
			return errors.NewConflictError(
				fmt.Sprintf("cannot cancel invoice in status %s", inv.Status),
				errors.ErrCodeInvalidInvoiceStatus)
		}

		inv.MarkCanceled(time.Now().UTC())
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		canceled = inv
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		s.notifier.Raise(ctx, canceled.TenantID, notification.TypeInvoiceCanceled,
			fmt.Sprintf("Invoice %s canceled", canceled.Number),
			fmt.Sprintf("Invoice %s for period %s has been canceled.", canceled.Number, canceled.Period),
			notification.RefInvoice, canceled.ID)
		s.logger.Info("invoice canceled", "invoice_id", canceled.ID, "number", canceled.Number)
	}

	return canceled, nil
}

// Resend re-raises the notification matching the invoice's current status
// without mutating state. Operator-triggered delivery retry.
func (s *Service) Resend(ctx context.Context, invoiceID int64) error {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return errors.ErrInvoiceNotFound
	}

	switch inv.Status {
	case StatusPaid:
		s.notifier.Raise(ctx, inv.TenantID, notification.TypePaymentApproved,
			fmt.Sprintf("Payment for %s approved", inv.Number),
			fmt.Sprintf("Your payment for invoice %s (IDR %d) has been approved. Thank you.", inv.Number, inv.Amount),
			notification.RefInvoice, inv.ID)
	case StatusCanceled:
		s.notifier.Raise(ctx, inv.TenantID, notification.TypeInvoiceCanceled,
			fmt.Sprintf("Invoice %s canceled", inv.Number),
			fmt.Sprintf("Invoice %s for period %s has been canceled.", inv.Number, inv.Period),
			notification.RefInvoice, inv.ID)
	default:
		s.notifier.Raise(ctx, inv.TenantID, notification.TypeInvoiceIssued,
			fmt.Sprintf("Invoice %s issued", inv.Number),
			fmt.Sprintf("Invoice %s for period %s, amount IDR %d, due %s.", inv.Number, inv.Period, inv.Amount, inv.DueDate.Format("2006-01-02")),
			notification.RefInvoice, inv.ID)
	}

	s.logger.Info("invoice notification resent", "invoice_id", inv.ID, "status", inv.Status)
	return nil
}

func (s *Service) GetByID(ctx context.Context, invoiceID int64) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errors.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Service) ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*Invoice, error) {
	return s.repo.ListByTenant(ctx, tenantID, limit, offset)
}

func (s *Service) lookupForUpdate(ctx context.Context, idOrNumber string) (*Invoice, error) {
	var inv *Invoice
	var err error
	if id, convErr := strconv.ParseInt(idOrNumber, 10, 64); convErr == nil {
		inv, err = s.repo.GetByIDForUpdate(ctx, id)
	} else {
		inv, err = s.repo.GetByNumber(ctx, idOrNumber)
	}
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errors.ErrInvoiceNotFound
	}
	return inv, nil
}
