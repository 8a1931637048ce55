package test

import (
	"sync"
	"time"

	"github.com/polkiloo/coursepay/internal/domain/model"
)

// TriggerRecord is a recorded Triggered call.
type TriggerRecord struct {
	OrderID  string
	Trigger  model.Trigger
	Accepted bool
}

// ObserverRecorder captures session notifications.
type ObserverRecorder struct {
	mu       sync.Mutex
	Starts   []model.Attempt
	Triggers []TriggerRecord
	Verifies []error
	Settles  []model.Attempt
	Winners  []model.Trigger
}

func (o *ObserverRecorder) Started(a model.Attempt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Starts = append(o.Starts, a)
}

func (o *ObserverRecorder) Triggered(orderID string, trigger model.Trigger, accepted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Triggers = append(o.Triggers, TriggerRecord{OrderID: orderID, Trigger: trigger, Accepted: accepted})
}

func (o *ObserverRecorder) Verified(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Verifies = append(o.Verifies, err)
}

func (o *ObserverRecorder) Settled(a model.Attempt, trigger model.Trigger) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Settles = append(o.Settles, a)
	o.Winners = append(o.Winners, trigger)
}

// Accepted returns triggers that won a transition.
func (o *ObserverRecorder) Accepted() []model.Trigger {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []model.Trigger
	for _, r := range o.Triggers {
		if r.Accepted {
			out = append(out, r.Trigger)
		}
	}
	return out
}

// SettledCount returns number of Settled calls.
func (o *ObserverRecorder) SettledCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.Settles)
}
