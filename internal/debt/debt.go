package debt

import (
	"time"
)

// Summary is a tenant's computed debt position.
type Summary struct {
	TenantID    int64     `json:"tenant_id"`
	Outstanding int64     `json:"outstanding"`
	OverdueDays int       `json:"overdue_days"`
	ComputedAt  time.Time `json:"computed_at"`
}
