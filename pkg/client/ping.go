package client

import (
	"sort"
	"time"
)

// maxRecentRTTs is how many round trips the ping estimate is taken over.
const maxRecentRTTs = 10

// pingTracker keeps the recent round trip times to the host.
type pingTracker struct {
	sentAt  time.Time
	pending bool
	recent  []time.Duration
}

func (p *pingTracker) sent(now time.Time) {
	p.sentAt = now
	p.pending = true
}

// received records the round trip of the outstanding ping. Pongs without
// an outstanding ping are ignored.
func (p *pingTracker) received(now time.Time) {
	if !p.pending {
		return
	}
	p.pending = false
	p.recent = append(p.recent, now.Sub(p.sentAt))
	if len(p.recent) > maxRecentRTTs {
		p.recent = p.recent[len(p.recent)-maxRecentRTTs:]
	}
}

// estimate is the mean of the recent round trips after dropping outliers.
func (p *pingTracker) estimate() time.Duration {
	rtts := removeOutlierRTTs(p.recent)
	if len(rtts) == 0 {
		return 0
	}
	var total time.Duration
	for _, rtt := range rtts {
		total += rtt
	}
	return total / time.Duration(len(rtts))
}

// removeOutlierRTTs drops round trips over twice the median that are also
// over 20ms.
func removeOutlierRTTs(rtts []time.Duration) []time.Duration {
	result := make([]time.Duration, 0, len(rtts))
	median := medianRTT(rtts)
	for _, rtt := range rtts {
		if rtt > 2*median && rtt > 20*time.Millisecond {
			continue
		}
		result = append(result, rtt)
	}
	return result
}

func medianRTT(rtts []time.Duration) time.Duration {
	if len(rtts) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(rtts))
	copy(sorted, rtts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if len(sorted)%2 == 0 {
		return (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}
	return sorted[len(sorted)/2]
}
