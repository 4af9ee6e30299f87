package domain

// Priority groups announcements for display. No ordering is implied between
// priorities; sorting is always by creation time.
type Priority string

const (
	PriorityEmergency     Priority = "emergency"
	PriorityServiceChange Priority = "service_change"
	PriorityInfo          Priority = "info"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityEmergency, PriorityServiceChange, PriorityInfo:
		return true
	}
	return false
}

// Announcement is a single driver/announcer broadcast. Immutable once created.
// ID is a ULID assigned at creation and is the identity used for deletion;
// CreatedAt (epoch milliseconds) is the sort key.
type Announcement struct {
	ID          string   `json:"id" dynamodbav:"id"`
	Text        string   `json:"text" dynamodbav:"text"`
	Priority    Priority `json:"priority" dynamodbav:"priority"`
	OriginName  string   `json:"origin_name" dynamodbav:"origin_name"`
	OriginID    string   `json:"origin_id,omitempty" dynamodbav:"origin_id,omitempty"`
	OriginEmail string   `json:"origin_email,omitempty" dynamodbav:"origin_email,omitempty"`
	LineID      string   `json:"line_id,omitempty" dynamodbav:"line_id,omitempty"`
	CreatedAt   int64    `json:"created_at" dynamodbav:"created_at"`
}
