package payment

import (
	"time"

	paymentDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/payment"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Payment struct {
	ID         int64     `json:"id"`
	InvoiceID  int64     `json:"invoice_id"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	VerifiedBy *int64    `json:"verified_by,omitempty"`
	ProofURL   *string   `json:"proof_url,omitempty"`
	PaidAt     time.Time `json:"paid_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Payment) ToDataModel() *paymentDatamodel.Payment {
	return &paymentDatamodel.Payment{
		ID:         p.ID,
		InvoiceID:  p.InvoiceID,
		Amount:     p.Amount,
		Status:     p.Status,
		VerifiedBy: p.VerifiedBy,
		ProofURL:   p.ProofURL,
		PaidAt:     p.PaidAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func FromDataModel(dm *paymentDatamodel.Payment) *Payment {
	return &Payment{
		ID:         dm.ID,
		InvoiceID:  dm.InvoiceID,
		Amount:     dm.Amount,
		Status:     dm.Status,
		VerifiedBy: dm.VerifiedBy,
		ProofURL:   dm.ProofURL,
		PaidAt:     dm.PaidAt,
		CreatedAt:  dm.CreatedAt,
		UpdatedAt:  dm.UpdatedAt,
	}
}
