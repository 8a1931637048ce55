package model

import "time"

// SessionState is the reconciliation state of a single checkout attempt.
type SessionState int32

const (
	StateAwaitingPayment SessionState = iota
	StateVerifying
	StateCompleted
	StateAbandoned
	StateUnverified
	StateTimedOut
)

var stateNames = map[SessionState]string{
	StateAwaitingPayment: "AWAITING_PAYMENT",
	StateVerifying:       "VERIFYING",
	StateCompleted:       "COMPLETED",
	StateAbandoned:       "ABANDONED",
	StateUnverified:      "UNVERIFIED",
	StateTimedOut:        "TIMED_OUT",
}

func (s SessionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseSessionState converts stored state name back to SessionState.
func ParseSessionState(name string) (SessionState, bool) {
	for state, n := range stateNames {
		if n == name {
			return state, true
		}
	}
	return 0, false
}

// Terminal reports whether no further transition is possible.
func (s SessionState) Terminal() bool {
	switch s {
	case StateCompleted, StateAbandoned, StateUnverified, StateTimedOut:
		return true
	default:
		return false
	}
}

var validNext = map[SessionState]map[SessionState]bool{
	StateAwaitingPayment: {StateVerifying: true, StateAbandoned: true, StateTimedOut: true},
	StateVerifying:       {StateCompleted: true, StateUnverified: true},
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to SessionState) bool {
	return validNext[from][to]
}

// Outcome is the externally visible result of a checkout attempt.
type Outcome struct {
	State       SessionState
	RedirectURL string
	Message     string
	Err         error
}

// Trigger names the signal that drove a transition.
type Trigger string

const (
	TriggerSuccess Trigger = "success"
	TriggerPoll    Trigger = "poll"
	TriggerDismiss Trigger = "dismiss"
	TriggerTimeout Trigger = "timeout"
)

// Attempt is the journal record of one checkout attempt.
type Attempt struct {
	OrderID     string
	CourseID    string
	BuyerID     string
	AmountMinor int64
	Currency    string
	State       SessionState
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
