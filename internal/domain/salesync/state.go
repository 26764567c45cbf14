package salesync

import "time"

// IngestState is the lifecycle state of one inbound webhook call
type IngestState string

const (
	StateReceived       IngestState = "RECEIVED"
	StateSignatureCheck IngestState = "SIGNATURE_CHECK"
	StateFilter         IngestState = "FILTER"
	StateAccepted       IngestState = "ACCEPTED"
	StateResolve        IngestState = "RESOLVE"
	StateBuild          IngestState = "BUILD"
	StateSubmitted      IngestState = "SUBMITTED"

	StateIgnored  IngestState = "IGNORED"
	StateRejected IngestState = "REJECTED"
	StateFailed   IngestState = "FAILED"
)

// IsTerminal reports whether no further transition follows
func (s IngestState) IsTerminal() bool {
	switch s {
	case StateSubmitted, StateIgnored, StateRejected, StateFailed:
		return true
	default:
		return false
	}
}

// WebhookOutcome is one entry of the recent-webhook diagnostics log
type WebhookOutcome struct {
	At        time.Time   `json:"at"`
	ReceiptID string      `json:"receipt_id,omitempty"`
	State     IngestState `json:"state"`
	Reason    string      `json:"reason,omitempty"`
}
