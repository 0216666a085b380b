package debt

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/dormitory-management/internal"
	"github.com/frahmantamala/dormitory-management/internal/tenant"
)

// Repository defines the aggregate queries the debt view is built from and
// the summary table writes.
type Repository interface {
	// SumInvoiced returns the total amount of all non-canceled invoices.
	SumInvoiced(ctx context.Context, tenantID int64) (int64, error)
	// SumApproved returns the total amount of approved payments against
	// the tenant's invoices.
	SumApproved(ctx context.Context, tenantID int64) (int64, error)
	// LatestUnsettledDueDate returns the latest due date among invoices
	// that still carry a remainder, or nil when every invoice is settled.
	LatestUnsettledDueDate(ctx context.Context, tenantID int64) (*time.Time, error)
	SaveSummary(ctx context.Context, summary *Summary) error
}

// TenantDirectory lists the tenants the full recalculation walks.
type TenantDirectory interface {
	ListActive(ctx context.Context) ([]*tenant.Info, error)
}

type Service struct {
	repo    Repository
	tenants TenantDirectory
	logger  *slog.Logger
}

func NewService(repo Repository, tenants TenantDirectory, logger *slog.Logger) *Service {
	return &Service{repo: repo, tenants: tenants, logger: logger}
}

// ForTenant computes the tenant's current debt position from the ledger.
// Always computed live; the summary table is a denormalized copy for
// reporting, never the source.
func (s *Service) ForTenant(ctx context.Context, tenantID int64) (*Summary, error) {
	return s.compute(ctx, tenantID, time.Now().UTC())
}

func (s *Service) compute(ctx context.Context, tenantID int64, now time.Time) (*Summary, error) {
	invoiced, err := s.repo.SumInvoiced(ctx, tenantID)
	if err != nil {
		return nil, errors.NewInternalError("failed to sum invoices", err)
	}

	approved, err := s.repo.SumApproved(ctx, tenantID)
	if err != nil {
		return nil, errors.NewInternalError("failed to sum payments", err)
	}

	summary := &Summary{
		TenantID:    tenantID,
		Outstanding: invoiced - approved,
		ComputedAt:  now,
	}

	if summary.Outstanding > 0 {
		dueDate, err := s.repo.LatestUnsettledDueDate(ctx, tenantID)
		if err != nil {
			return nil, errors.NewInternalError("failed to find due date", err)
		}
		if dueDate != nil && now.After(*dueDate) {
			summary.OverdueDays = int(now.Sub(*dueDate).Hours() / 24)
		}
	}

	return summary, nil
}

// RecalculateAll recomputes and stores the summary row for every active
// tenant. Each row is replaced whole; a failed tenant aborts the run so a
// half-written table never looks complete.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for _, t := range tenants {
		summary, err := s.compute(ctx, t.ID, now)
		if err != nil {
			return 0, err
		}
		if err := s.repo.SaveSummary(ctx, summary); err != nil {
			return 0, errors.NewInternalError("failed to save debt summary", err)
		}
	}

	s.logger.Info("debt summaries recalculated", "tenants", len(tenants))
	return len(tenants), nil
}
