package invoice

import (
	"fmt"
	"time"

	invoiceDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/invoice"
)

const (
	StatusUnpaid   = "unpaid"
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusOverdue  = "overdue"
	StatusPartial  = "partial"
	StatusCanceled = "canceled"
)

type Invoice struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	TenantID   int64      `json:"tenant_id"`
	RoomID     *int64     `json:"room_id,omitempty"`
	Period     string     `json:"period"`
	Amount     int64      `json:"amount"`
	DueDate    time.Time  `json:"due_date"`
	Status     string     `json:"status"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	ProofURL   *string    `json:"proof_url,omitempty"`
	RemindedAt *time.Time `json:"reminded_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FormatNumber renders the human-readable sequential invoice number.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("INV-%06d", seq)
}

// ParsePeriod parses a YYYY-MM billing period into the first day of that
// month (UTC).
func ParsePeriod(period string) (time.Time, error) {
	return time.Parse("2006-01", period)
}

// DueDateForPeriod derives the invoice due date from the billing period. A
// nil due day means the last calendar day of the period's month; an explicit
// due day is clamped to that last day, so a due day of 31 in a 30-day month
// lands on the 30th.
func DueDateForPeriod(period string, dueDay *int) (time.Time, error) {
	start, err := ParsePeriod(period)
	if err != nil {
		return time.Time{}, err
	}

	lastDay := start.AddDate(0, 1, -1).Day()
	day := lastDay
	if dueDay != nil && *dueDay > 0 && *dueDay < lastDay {
		day = *dueDay
	}

	return time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC), nil
}

func (i *Invoice) CanBeApproved() bool {
	switch i.Status {
	case StatusUnpaid, StatusPending, StatusOverdue, StatusPartial:
		return true
	}
	return false
}

func (i *Invoice) CanBeRejected() bool {
	return i.Status == StatusPending
}

func (i *Invoice) CanBeCanceled() bool {
	switch i.Status {
	case StatusUnpaid, StatusPending, StatusOverdue:
		return true
	}
	return false
}

func (i *Invoice) IsTerminal() bool {
	return i.Status == StatusPaid || i.Status == StatusCanceled
}

func (i *Invoice) MarkPaid(at time.Time) {
	i.Status = StatusPaid
	i.PaidAt = &at
	i.UpdatedAt = at
}

// RecomputeAfterReject puts a rejected invoice back into unpaid or overdue
// depending on where today falls relative to the due date, and clears the
// paid timestamp.
func (i *Invoice) RecomputeAfterReject(today time.Time) {
	if today.After(i.DueDate) {
		i.Status = StatusOverdue
	} else {
		i.Status = StatusUnpaid
	}
	i.PaidAt = nil
	i.UpdatedAt = today
}

func (i *Invoice) MarkCanceled(at time.Time) {
	i.Status = StatusCanceled
	i.UpdatedAt = at
}

func ToDataModel(i *Invoice) *invoiceDatamodel.Invoice {
	return &invoiceDatamodel.Invoice{
		ID:         i.ID,
		Number:     i.Number,
		TenantID:   i.TenantID,
		RoomID:     i.RoomID,
		Period:     i.Period,
		Amount:     i.Amount,
		DueDate:    i.DueDate,
		Status:     i.Status,
		PaidAt:     i.PaidAt,
		ProofURL:   i.ProofURL,
		RemindedAt: i.RemindedAt,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

func FromDataModel(i *invoiceDatamodel.Invoice) *Invoice {
	return &Invoice{
		ID:         i.ID,
		Number:     i.Number,
		TenantID:   i.TenantID,
		RoomID:     i.RoomID,
		Period:     i.Period,
		Amount:     i.Amount,
		DueDate:    i.DueDate,
		Status:     i.Status,
		PaidAt:     i.PaidAt,
		ProofURL:   i.ProofURL,
		RemindedAt: i.RemindedAt,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

func FromDataModelSlice(invoices []*invoiceDatamodel.Invoice) []*Invoice {
	result := make([]*Invoice, len(invoices))
	for i, inv := range invoices {
		result[i] = FromDataModel(inv)
	}
	return result
}
