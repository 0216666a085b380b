package linking

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/dormitory-management/internal"
)

// Repository defines the data access methods for link tokens and channel
// bindings.
type Repository interface {
	CreateToken(ctx context.Context, t *LinkToken) error
	// GetTokenByCode returns the newest token with the given code, or nil.
	GetTokenByCode(ctx context.Context, code string) (*LinkToken, error)
	// ConsumeToken flips used to true only when it is still false and
	// reports whether this call won the flip.
	ConsumeToken(ctx context.Context, tokenID int64) (bool, error)
	// UpsertBinding replaces any prior binding for the tenant or the
	// external identity with the new pair.
	UpsertBinding(ctx context.Context, tenantID int64, externalID string, at time.Time) error
	ExternalIDForTenant(ctx context.Context, tenantID int64) (string, error)
	TenantForExternalID(ctx context.Context, externalID string) (int64, error)
}

type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type IssuedToken struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service implements the account linking protocol: short-lived single-use
// codes that bind a tenant to an external chat identity.
type Service struct {
	repo   Repository
	txm    TxManager
	logger *slog.Logger
}

func NewService(repo Repository, txm TxManager, logger *slog.Logger) *Service {
	return &Service{repo: repo, txm: txm, logger: logger}
}

// IssueToken creates a fresh code valid for ten minutes. Older unused codes
// for the same tenant stay valid; the first one consumed wins.
func (s *Service) IssueToken(ctx context.Context, userID, tenantID int64) (*IssuedToken, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, errors.NewInternalError("failed to generate link code", err)
	}

	now := time.Now().UTC()
	token := &LinkToken{
		Code:      code,
		UserID:    userID,
		TenantID:  tenantID,
		ExpiresAt: now.Add(tokenTTL),
		CreatedAt: now,
	}

	if err := s.repo.CreateToken(ctx, token); err != nil {
		s.logger.Error("failed to store link token", "error", err, "tenant_id", tenantID)
		return nil, err
	}

	s.logger.Info("link token issued", "tenant_id", tenantID, "user_id", userID, "expires_at", token.ExpiresAt)
	return &IssuedToken{Code: token.Code, ExpiresAt: token.ExpiresAt}, nil
}

// Consume redeems a code from an inbound webhook event and binds the tenant
// to the external identity. The used flip and the binding upsert share one
// transaction so concurrent redeliveries of the same code cannot both win.
func (s *Service) Consume(ctx context.Context, code, externalID string) (int64, error) {
	var tenantID int64

	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		token, err := s.repo.GetTokenByCode(ctx, code)
		if err != nil {
			return err
		}
		if token == nil {
			return errors.ErrLinkTokenNotFound
		}
		if token.Used {
			return errors.ErrLinkTokenUsed
		}
		if token.Expired(time.Now().UTC()) {
			return errors.ErrLinkTokenExpired
		}

		won, err := s.repo.ConsumeToken(ctx, token.ID)
		if err != nil {
			return err
		}
		if !won {
			return errors.ErrLinkTokenUsed
		}

		if err := s.repo.UpsertBinding(ctx, token.TenantID, externalID, time.Now().UTC()); err != nil {
			return err
		}

		tenantID = token.TenantID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("channel binding created", "tenant_id", tenantID, "external_id", externalID)
	return tenantID, nil
}

// ExternalIDForTenant satisfies the notification dispatcher's BindingSource.
func (s *Service) ExternalIDForTenant(ctx context.Context, tenantID int64) (string, error) {
	return s.repo.ExternalIDForTenant(ctx, tenantID)
}

// TenantForExternalID returns 0 when the identity is not bound.
func (s *Service) TenantForExternalID(ctx context.Context, externalID string) (int64, error) {
	return s.repo.TenantForExternalID(ctx, externalID)
}
