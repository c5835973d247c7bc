package models

import "time"

// MoneyRequest is the three-slot request the dialogue fills. A slot is
// either nil or a value that already cleared the confidence gate; the
// assembler is the only writer.
type MoneyRequest struct {
	ProjectID *string  `json:"projectId,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
	Reason    *string  `json:"reason,omitempty"`
}

// Complete reports whether all three slots are populated.
func (r MoneyRequest) Complete() bool {
	return r.ProjectID != nil && r.Amount != nil && r.Reason != nil
}

// RequestRecord is the persisted shape of a confirmed money request.
type RequestRecord struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"projectId" db:"project_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Reason    string    `json:"reason" db:"reason"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Request record statuses.
const (
	StatusPendingApproval = "pending_approval"
)
