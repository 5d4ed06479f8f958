package stats

import (
	"fmt"
	"sort"
	"strings"
)

// Distribution is a compact histogram over a set of uint64 samples (node
// ages, section sizes, or prefix lengths), with enough summary statistics
// to reproduce spec.md's per-tick "Dist" fields without keeping every raw
// sample around.
type Distribution struct {
	Min    uint64
	Max    uint64
	Mean   float64
	Count  uint64
	Counts map[uint64]uint64
}

// NewDistribution summarizes samples into a Distribution. An empty input
// yields a zero-valued Distribution.
func NewDistribution(samples []uint64) Distribution {
	d := Distribution{Counts: make(map[uint64]uint64)}
	if len(samples) == 0 {
		return d
	}

	d.Min = samples[0]
	d.Max = samples[0]
	var sum uint64
	for _, v := range samples {
		if v < d.Min {
			d.Min = v
		}
		if v > d.Max {
			d.Max = v
		}
		sum += v
		d.Counts[v]++
	}
	d.Count = uint64(len(samples))
	d.Mean = float64(sum) / float64(len(samples))
	return d
}

// String renders d as "min/max/mean plus a sorted value:count breakdown",
// matching the compact single-line form the per-tick stdout record uses.
func (d Distribution) String() string {
	if d.Count == 0 {
		return "min=0 max=0 mean=0.00 {}"
	}

	keys := make([]uint64, 0, len(d.Counts))
	for k := range d.Counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d:%d", k, d.Counts[k]))
	}

	return fmt.Sprintf("min=%d max=%d mean=%.2f {%s}", d.Min, d.Max, d.Mean, strings.Join(parts, ", "))
}
