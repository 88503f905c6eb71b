package broker

import "github.com/lyrion-studio/lyrion-api/models"

type Status string

const (
	StatusHandled   Status = Status(models.OutcomeHandled)
	StatusDegraded  Status = Status(models.OutcomeDegraded)
	StatusFailed    Status = Status(models.OutcomeFailed)
	StatusDuplicate Status = "duplicate"
	StatusIgnored   Status = "ignored"
)

// Outcome is the result of one webhook delivery. Degraded means payment was
// recorded but something needs manual follow-up; Notes say what.
type Outcome struct {
	EventID   string   `json:"event_id"`
	EventType string   `json:"event_type"`
	Status    Status   `json:"status"`
	OrderRef  string   `json:"order_ref,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}

// Acknowledge reports whether the processor should stop redelivering.
func (o Outcome) Acknowledge() bool {
	return o.Status != StatusFailed
}

func (o *Outcome) degrade(note string) {
	o.Notes = append(o.Notes, note)
	if o.Status == StatusHandled {
		o.Status = StatusDegraded
	}
}
