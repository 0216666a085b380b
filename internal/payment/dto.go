package payment

import (
	errors "github.com/frahmantamala/dormitory-management/internal"
)

type RecordProofDTO struct {
	Amount   int64   `json:"amount"`
	ProofURL *string `json:"proof_url,omitempty"`
}

func (d *RecordProofDTO) Validate() error {
	if d.Amount <= 0 {
		return errors.NewValidationError("amount must be greater than zero", errors.ErrCodeInvalidAmount)
	}
	if d.ProofURL != nil && *d.ProofURL == "" {
		return errors.NewValidationError("proof_url must not be empty when provided", errors.ErrCodeValidationFailed)
	}
	return nil
}

type RecordProofResult struct {
	PaymentID     int64  `json:"payment_id"`
	InvoiceID     int64  `json:"invoice_id"`
	InvoiceStatus string `json:"invoice_status"`
}
