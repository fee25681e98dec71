// Package perf keeps a bounded window of request and query timings for the
// admin performance page.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultRingSize is how many timings the server keeps.
const DefaultRingSize = 10000

// Kind tells request timings from query timings.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

// Entry is one timed request or statement.
type Entry struct {
	Kind     Kind
	Label    string // "GET /visitas" or "SELECT technical_visit"
	Status   int    // HTTP status; 0 for queries
	Failed   bool   // 5xx response or statement error
	Duration time.Duration
	At       time.Time
}

// Collector holds the most recent entries; older ones are overwritten.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   int64
}

// NewCollector returns a collector keeping up to size entries.
// PRE: size > 0, otherwise DefaultRingSize is used
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, 0, size)}
}

// Record stores e, evicting the oldest entry once the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	if len(c.entries) < cap(c.entries) {
		c.entries = append(c.entries, e)
		return
	}
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
}

// TotalRecorded counts every entry since start, evicted ones included.
func (c *Collector) TotalRecorded() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Stat aggregates the entries sharing a label.
type Stat struct {
	Label    string
	Count    int
	Failures int
	Total    time.Duration
	Max      time.Duration
}

// AvgMs is the mean duration in milliseconds.
func (s Stat) AvgMs() float64 {
	if s.Count == 0 {
		return 0
	}
	return ms(s.Total) / float64(s.Count)
}

// MaxMs is the longest duration in milliseconds.
func (s Stat) MaxMs() float64 { return ms(s.Max) }

// Snapshot summarises the entries of one time window.
type Snapshot struct {
	Since          time.Time
	TotalRecorded  int64
	Requests       int
	Queries        int
	ServerErrors   int
	FailedQueries  int
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	SlowestPaths   []Stat
	SlowestQueries []Stat
}

// Snapshot aggregates entries at or after since, keeping the topN slowest
// labels of each kind (topN <= 0 keeps all). It sorts; the admin page is
// the only caller.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	window := slices.Clone(c.entries)
	total := c.total
	c.mu.Unlock()

	snap := Snapshot{Since: since, TotalRecorded: total}
	requests := map[string]*Stat{}
	queries := map[string]*Stat{}
	var latencies []time.Duration

	for _, e := range window {
		if e.At.Before(since) {
			continue
		}
		byLabel := queries
		if e.Kind == KindRequest {
			byLabel = requests
			snap.Requests++
			latencies = append(latencies, e.Duration)
			if e.Failed {
				snap.ServerErrors++
			}
		} else {
			snap.Queries++
			if e.Failed {
				snap.FailedQueries++
			}
		}
		s := byLabel[e.Label]
		if s == nil {
			s = &Stat{Label: e.Label}
			byLabel[e.Label] = s
		}
		s.Count++
		s.Total += e.Duration
		s.Max = max(s.Max, e.Duration)
		if e.Failed {
			s.Failures++
		}
	}

	snap.SlowestPaths = slowest(requests, topN)
	snap.SlowestQueries = slowest(queries, topN)
	if len(latencies) > 0 {
		slices.Sort(latencies)
		snap.RequestP50Ms = ms(nearestRank(latencies, 50))
		snap.RequestP95Ms = ms(nearestRank(latencies, 95))
		snap.RequestP99Ms = ms(nearestRank(latencies, 99))
	}
	return snap
}

// nearestRank picks the p-th percentile of a sorted, non-empty slice.
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p * float64(len(sorted)) / 100))
	return sorted[max(rank-1, 0)]
}

// slowest orders stats by mean duration, descending, with label as tie-break.
func slowest(stats map[string]*Stat, n int) []Stat {
	out := make([]Stat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Stat) int {
		if c := cmp.Compare(b.AvgMs(), a.AvgMs()); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
