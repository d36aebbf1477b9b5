package reflection

import "time"

// Session captures the transient state of one connected client. The
// submitted password is compared and discarded, it is never a field here.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	FailedAttempt bool      `json:"failedAttempt"`
	CreatedAt     time.Time `json:"createdAt"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
}
