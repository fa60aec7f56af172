package notifications

import "time"

// ChangeType says what happened to a record.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is the webhook payload sent after a successful admin write.
type Change struct {
	Type      ChangeType `json:"type"`
	Category  string     `json:"category"`
	RecordID  string     `json:"record_id"`
	Actor     string     `json:"actor,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
