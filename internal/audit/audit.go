// Package audit records admin actions against published content.
package audit

import "time"

// Action describes what was done.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionUploaded Action = "uploaded"
	ActionSignIn   Action = "signed_in"
	ActionDenied   Action = "denied"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	Category  string    `json:"category,omitempty"`
	RecordID  string    `json:"record_id,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
