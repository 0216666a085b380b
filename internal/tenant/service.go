package tenant

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/dormitory-management/internal"
)

// Repository defines the read-only access the directory has into the tenant
// tables owned by the CRUD side of the application.
type Repository interface {
	// GetActive returns the active tenant with the given id, or nil.
	GetActive(ctx context.Context, id int64) (*Info, error)
	ListActive(ctx context.Context) ([]*Info, error)
}

// Directory exposes active tenants to the billing core.
type Directory struct {
	repo   Repository
	logger *slog.Logger
}

func NewDirectory(repo Repository, logger *slog.Logger) *Directory {
	return &Directory{repo: repo, logger: logger}
}

func (d *Directory) GetActive(ctx context.Context, id int64) (*Info, error) {
	info, err := d.repo.GetActive(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to load tenant", err)
	}
	if info == nil {
		return nil, errors.ErrTenantNotFound
	}
	return info, nil
}

func (d *Directory) ListActive(ctx context.Context) ([]*Info, error) {
	infos, err := d.repo.ListActive(ctx)
	if err != nil {
		return nil, errors.NewInternalError("failed to list tenants", err)
	}
	return infos, nil
}
