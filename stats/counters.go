package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Counters is a thread-safe named-event tally, used by the search tree to
// record how often things happen (nodes scored, rollout points collected,
// scorer failures, ...).
type Counters struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int)}
}

// LogEvent increments the named counter by one.
func (c *Counters) LogEvent(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event]++
}

// Count returns the current value of a named counter.
func (c *Counters) Count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[event]
}

// String renders every counter, sorted by name, one per line.
func (c *Counters) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.counts))
	for k := range c.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "%s: %d\n", n, c.counts[n])
	}
	return b.String()
}
