package reflection

import "time"

// Reflection holds one generated poem. It lives only as long as its session
// so the reveal endpoint can replay it.
type Reflection struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Poet      string    `json:"poet"`
	CreatedAt time.Time `json:"createdAt"`
}
