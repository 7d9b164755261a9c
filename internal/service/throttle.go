// internal/service/throttle.go
package service

import "time"

// Provider ceiling is ~2 requests/second, so the loop waits 600ms after
// every send and another second between batches. Concurrent sends would
// violate the provider's rate contract.
const (
	DefaultSendDelay  = 600 * time.Millisecond
	DefaultBatchDelay = 1000 * time.Millisecond
)

// Throttle paces the dispatch loop with fixed delays. Sleep is a field so
// tests can run with an instant clock.
type Throttle struct {
	SendDelay  time.Duration
	BatchDelay time.Duration
	Sleep      func(time.Duration)
}

func NewThrottle(sendDelay, batchDelay time.Duration) *Throttle {
	return &Throttle{
		SendDelay:  sendDelay,
		BatchDelay: batchDelay,
		Sleep:      time.Sleep,
	}
}

func (t *Throttle) AfterSend() {
	if t.SendDelay > 0 {
		t.Sleep(t.SendDelay)
	}
}

func (t *Throttle) AfterBatch() {
	if t.BatchDelay > 0 {
		t.Sleep(t.BatchDelay)
	}
}
