package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/notification"
)

// Notification types form a closed vocabulary; unknown types are rejected at
// the store boundary.
const (
	TypeInvoiceIssued   = "invoice_issued"
	TypePaymentApproved = "payment_approved"
	TypePaymentRejected = "payment_rejected"
	TypeInvoiceCanceled = "invoice_canceled"
	TypeRepairUpdated   = "repair_updated"
)

// Reference kinds for the polymorphic pointer to the triggering entity.
const (
	RefInvoice = "invoice"
	RefPayment = "payment"
	RefRepair  = "repair"
)

// External delivery outcomes. Empty means delivery has not been attempted.
const (
	DeliveryOK       = "ok"
	DeliveryUnlinked = "unlinked"
	DeliveryFail     = "fail"
)

type Notification struct {
	ID             int64      `json:"id"`
	TenantID       int64      `json:"tenant_id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	RefKind        string     `json:"ref_kind,omitempty"`
	RefID          int64      `json:"ref_id,omitempty"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	DeliveryStatus string     `json:"delivery_status,omitempty"`
	DeliveryError  *string    `json:"delivery_error,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func KnownType(typ string) bool {
	switch typ {
	case TypeInvoiceIssued, TypePaymentApproved, TypePaymentRejected, TypeInvoiceCanceled, TypeRepairUpdated:
		return true
	}
	return false
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:             n.ID,
		TenantID:       n.TenantID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		RefKind:        n.RefKind,
		RefID:          n.RefID,
		Read:           n.Read,
		ReadAt:         n.ReadAt,
		DeliveryStatus: n.DeliveryStatus,
		DeliveryError:  n.DeliveryError,
		DeliveredAt:    n.DeliveredAt,
		CreatedAt:      n.CreatedAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:             n.ID,
		TenantID:       n.TenantID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		RefKind:        n.RefKind,
		RefID:          n.RefID,
		Read:           n.Read,
		ReadAt:         n.ReadAt,
		DeliveryStatus: n.DeliveryStatus,
		DeliveryError:  n.DeliveryError,
		DeliveredAt:    n.DeliveredAt,
		CreatedAt:      n.CreatedAt,
	}
}

func FromDataModelSlice(rows []*notificationDatamodel.Notification) []*Notification {
	result := make([]*Notification, len(rows))
	for i, n := range rows {
		result[i] = FromDataModel(n)
	}
	return result
}
