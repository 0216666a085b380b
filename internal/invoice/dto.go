package invoice

import (
	"regexp"
	"time"

	errors "github.com/frahmantamala/dormitory-management/internal"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type IssueDTO struct {
	TenantID int64  `json:"tenant_id"`
	Period   string `json:"period"`
	Amount   int64  `json:"amount"`
	DueDate  string `json:"due_date,omitempty"`
	DueDay   *int   `json:"due_day,omitempty"`
}

func (d *IssueDTO) Validate() error {
	if d.TenantID <= 0 {
		return errors.NewValidationFieldError("tenant_id", "tenant_id is required", errors.ErrCodeValidationFailed)
	}
	if !periodPattern.MatchString(d.Period) {
		return errors.NewValidationFieldError("period", "period must be formatted YYYY-MM", errors.ErrCodeInvalidPeriod)
	}
	if d.Amount <= 0 {
		return errors.NewValidationFieldError("amount", "amount must be positive", errors.ErrCodeInvalidAmount)
	}
	if d.DueDate != "" {
		if _, err := time.Parse("2006-01-02", d.DueDate); err != nil {
			return errors.NewValidationFieldError("due_date", "due_date must be formatted YYYY-MM-DD", errors.ErrCodeValidationFailed)
		}
	}
	return nil
}

// ResolveDueDate applies the period-clamping rule when no explicit date is
// supplied.
func (d *IssueDTO) ResolveDueDate() (time.Time, error) {
	if d.DueDate != "" {
		return time.Parse("2006-01-02", d.DueDate)
	}
	return DueDateForPeriod(d.Period, d.DueDay)
}

type BatchIssueDTO struct {
	Period        string `json:"period"`
	DefaultAmount *int64 `json:"default_amount,omitempty"`
	DueDay        *int   `json:"due_day,omitempty"`
}

func (d *BatchIssueDTO) Validate() error {
	if !periodPattern.MatchString(d.Period) {
		return errors.NewValidationFieldError("period", "period must be formatted YYYY-MM", errors.ErrCodeInvalidPeriod)
	}
	if d.DefaultAmount != nil && *d.DefaultAmount <= 0 {
		return errors.NewValidationFieldError("default_amount", "default_amount must be positive", errors.ErrCodeInvalidAmount)
	}
	return nil
}

type BatchIssueResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type DecideDTO struct {
	Action string `json:"action"`
}

func (d *DecideDTO) Validate() error {
	if d.Action != ActionApprove && d.Action != ActionReject {
		return errors.NewValidationFieldError("action", "action must be approve or reject", errors.ErrCodeInvalidAction)
	}
	return nil
}

type DecideResult struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	PaymentID int64  `json:"payment_id,omitempty"`
}

type IssueResult struct {
	InvoiceID int64  `json:"invoice_id"`
	Number    string `json:"number"`
}
