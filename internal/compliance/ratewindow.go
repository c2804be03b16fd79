package compliance

import (
	"sync"
	"time"
)

// rateWindow counts requests per user in a fixed window. A user's
// counter resets when the window elapses; there is no sliding credit.
type rateWindow struct {
	window time.Duration
	max    int
	now    func() time.Time

	mu    sync.Mutex
	users map[string]*windowState
}

type windowState struct {
	start time.Time
	count int
}

func newRateWindow(window time.Duration, max int) *rateWindow {
	return &rateWindow{
		window: window,
		max:    max,
		now:    time.Now,
		users:  make(map[string]*windowState),
	}
}

// setLimits swaps the window parameters. Open windows keep their
// current start; only the bounds change.
func (r *rateWindow) setLimits(window time.Duration, max int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.window = window
	r.max = max
}

// allow records one request for the user and reports whether it fits in
// the current window. A non-positive max disables limiting.
func (r *rateWindow) allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max <= 0 {
		return true
	}

	now := r.now()
	st, ok := r.users[userID]
	if !ok || now.Sub(st.start) >= r.window {
		r.users[userID] = &windowState{start: now, count: 1}
		return true
	}
	if st.count >= r.max {
		return false
	}
	st.count++
	return true
}
