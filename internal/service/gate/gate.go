package gate

import (
	"crypto/subtle"

	"github.com/inkwell-apps/daily-reflection/internal/model/reflection"
)

// State is the access state of one session.
type State string

const (
	StateLocked        State = "locked"
	StateUnlocked      State = "unlocked"
	StateMisconfigured State = "misconfigured"
)

// Result reports the gate state after a query or a submit. Incorrect is set
// only while the session's most recent submit did not match.
type Result struct {
	State     State `json:"state"`
	Incorrect bool  `json:"incorrect"`
}

// Service checks submitted passwords against the configured shared secret.
type Service struct {
	password string
}

// NewService creates the gate around the configured password. An empty
// password leaves the gate permanently misconfigured, it never unlocks.
func NewService(password string) *Service {
	return &Service{password: password}
}

// Configured reports whether a shared secret is present.
func (s *Service) Configured() bool {
	return s.password != ""
}

// Query reports the current state without moving the state machine.
func (s *Service) Query(sess reflection.Session) Result {
	if !s.Configured() {
		return Result{State: StateMisconfigured}
	}
	if sess.Authenticated {
		return Result{State: StateUnlocked}
	}
	return Result{State: StateLocked, Incorrect: sess.FailedAttempt}
}

// Submit compares the submitted password and advances the session. The
// submitted value is compared in constant time and discarded, it is never
// stored or logged. Unlocked is terminal for the session.
func (s *Service) Submit(sess *reflection.Session, submitted string) Result {
	if !s.Configured() {
		return Result{State: StateMisconfigured}
	}

	if sess.Authenticated {
		return Result{State: StateUnlocked}
	}

	if subtle.ConstantTimeCompare([]byte(submitted), []byte(s.password)) == 1 {
		sess.Authenticated = true
		sess.FailedAttempt = false
		return Result{State: StateUnlocked}
	}

	sess.FailedAttempt = true
	return Result{State: StateLocked, Incorrect: true}
}
