package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Callbacks counts prepare/complete calls per action and result code.
type Callbacks struct {
	mu       sync.RWMutex
	results  map[string]map[int]*Counter
	failed   Counter
	totalDur Counter
}

func NewCallbacks() *Callbacks {
	return &Callbacks{results: make(map[string]map[int]*Counter)}
}

// Observe records one answered callback.
func (c *Callbacks) Observe(action string, result int, d time.Duration) {
	c.counter(action, result).Inc()
	c.totalDur.Add(uint64(d.Microseconds()))
}

// Fail records a callback that ended in an internal error.
func (c *Callbacks) Fail() {
	c.failed.Inc()
}

func (c *Callbacks) counter(action string, result int) *Counter {
	c.mu.RLock()
	ctr, ok := c.results[action][result]
	c.mu.RUnlock()
	if ok {
		return ctr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	byResult, ok := c.results[action]
	if !ok {
		byResult = make(map[int]*Counter)
		c.results[action] = byResult
	}
	if ctr, ok = byResult[result]; !ok {
		ctr = &Counter{}
		byResult[result] = ctr
	}
	return ctr
}

// Snapshot is a point-in-time copy suitable for JSON output.
type Snapshot struct {
	Results        map[string]map[int]uint64 `json:"results"`
	Failed         uint64                    `json:"failed"`
	TotalLatencyUS uint64                    `json:"total_latency_us"`
}

func (c *Callbacks) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Results:        make(map[string]map[int]uint64, len(c.results)),
		Failed:         c.failed.Load(),
		TotalLatencyUS: c.totalDur.Load(),
	}
	for action, byResult := range c.results {
		s.Results[action] = make(map[int]uint64, len(byResult))
		for code, ctr := range byResult {
			s.Results[action][code] = ctr.Load()
		}
	}
	return s
}
