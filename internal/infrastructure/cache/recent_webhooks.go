package cache

import (
	"sync"

	"github.com/erp/posbridge/internal/domain/salesync"
)

// RecentWebhooks is a fixed-size ring of the latest webhook outcomes
type RecentWebhooks struct {
	mu    sync.Mutex
	items []salesync.WebhookOutcome
	next  int
	full  bool
}

// NewRecentWebhooks creates a ring holding up to size entries
func NewRecentWebhooks(size int) *RecentWebhooks {
	if size <= 0 {
		size = 1
	}
	return &RecentWebhooks{items: make([]salesync.WebhookOutcome, size)}
}

// Record appends an outcome, overwriting the oldest one when full
func (r *RecentWebhooks) Record(outcome salesync.WebhookOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = outcome
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

// List returns the stored outcomes, newest first
func (r *RecentWebhooks) List() []salesync.WebhookOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.items)
	}
	out := make([]salesync.WebhookOutcome, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.items)) % len(r.items)
		out = append(out, r.items[idx])
	}
	return out
}
