package rate

import "time"

// Window is the length of one accumulation interval.
const Window = time.Second

// Monitor counts samples within a rolling one-second window and publishes
// the count of the last completed window as the rate.
type Monitor struct {
	count int
	rate  int
	next  time.Time
}

// New creates a Monitor whose first boundary is one Window after now.
func New(now time.Time) *Monitor {
	return &Monitor{
		next: now.Add(Window),
	}
}

// Record counts one decoded sample.
func (m *Monitor) Record() {
	m.count++
}

// RecordN counts n decoded samples.
func (m *Monitor) RecordN(n int) {
	m.count += n
}

// Tick publishes the current count once now reaches the window boundary.
// The next boundary is resynced to now + Window, so missed windows are not
// replayed. Call once per acquisition pass, whether or not samples arrived.
func (m *Monitor) Tick(now time.Time) {
	if now.Before(m.next) {
		return
	}
	m.rate = m.count
	m.count = 0
	m.next = now.Add(Window)
}

// Rate returns the last published rate in samples per second.
func (m *Monitor) Rate() int {
	return m.rate
}

// Pending returns the number of samples counted since the last boundary.
func (m *Monitor) Pending() int {
	return m.count
}

// NextBoundary returns the time at which the current window closes.
func (m *Monitor) NextBoundary() time.Time {
	return m.next
}
