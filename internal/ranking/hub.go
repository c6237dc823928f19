package ranking

import (
	"sync"

	"flag-trivia-service/internal/domain"
)

// Update carries a refreshed daily leaderboard for one partition.
type Update struct {
	Region  string               `json:"region"`
	Format  domain.QuizFormat    `json:"format"`
	Entries []domain.RankedEntry `json:"entries"`
}

// hub fans leaderboard updates out to per-partition subscribers.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Update]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan Update]struct{})}
}

func partitionKey(region string, format domain.QuizFormat) string {
	return region + "|" + string(format)
}

func (h *hub) subscribe(region string, format domain.QuizFormat) (<-chan Update, func()) {
	key := partitionKey(region, format)
	ch := make(chan Update, 8)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan Update]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[key]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *hub) hasSubscribers(region string, format domain.QuizFormat) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[partitionKey(region, format)]) > 0
}

func (h *hub) publish(update Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[partitionKey(update.Region, update.Format)] {
		select {
		case ch <- update:
		default:
			// Drop the stale update so a slow subscriber never blocks
			// the submitting request.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
