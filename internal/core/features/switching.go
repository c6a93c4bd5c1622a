package features

import (
	"time"

	"github.com/ryansgi/rabbit/internal/core/mapping"
)

// run is one maximal span of consecutive activities sharing the same key
// (repository or activity kind), in the order the activities occurred
type run struct {
	count      int
	start, end time.Time
}

// groupRuns partitions chronologically sorted activities into consecutive
// runs of equal key, mirroring a shift-based new-group detector: a run
// breaks the moment the key changes, not when it reappears later
func groupRuns(activities []mapping.Activity, key func(mapping.Activity) string) []run {
	var runs []run
	var curKey string
	var cur *run
	for _, a := range activities {
		k := key(a)
		if cur == nil || k != curKey {
			if cur != nil {
				runs = append(runs, *cur)
			}
			cur = &run{count: 1, start: a.StartDate, end: a.StartDate}
			curKey = k
			continue
		}
		cur.count++
		cur.end = a.StartDate
	}
	if cur != nil {
		runs = append(runs, *cur)
	}
	return runs
}

// timeToSwitch returns the gap, in hours, between each run's end and the
// next run's start. The final run has no successor so it contributes no
// value, matching the trailing NaN the source computation drops
func timeToSwitch(runs []run) []float64 {
	if len(runs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(runs)-1)
	for i := 0; i < len(runs)-1; i++ {
		out = append(out, runs[i+1].start.Sub(runs[i].end).Hours())
	}
	return out
}

// timeSpent returns each run's own span, in hours, from its first to its
// last activity
func timeSpent(runs []run) []float64 {
	out := make([]float64, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.end.Sub(r.start).Hours())
	}
	return out
}

// runCounts returns the number of activities folded into each run
func runCounts(runs []run) []float64 {
	out := make([]float64, 0, len(runs))
	for _, r := range runs {
		out = append(out, float64(r.count))
	}
	return out
}

// groupCounts aggregates activities into one bucket per distinct key value,
// regardless of whether occurrences are contiguous, and returns the count
// per bucket. Used for NAR/NAT, whose Python source groups with a plain
// pandas groupby rather than a consecutive-run detector
func groupCounts(activities []mapping.Activity, key func(mapping.Activity) string) []float64 {
	counts := map[string]int{}
	order := make([]string, 0, len(activities))
	for _, a := range activities {
		k := key(a)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]float64, 0, len(order))
	for _, k := range order {
		out = append(out, float64(counts[k]))
	}
	return out
}

// groupDistinctCounts aggregates activities into one bucket per distinct
// outer key and counts the distinct inner key values seen in each bucket.
// Used for NTR: distinct activity kinds per repository
func groupDistinctCounts(activities []mapping.Activity, outer, inner func(mapping.Activity) string) []float64 {
	seen := map[string]map[string]bool{}
	order := make([]string, 0, len(activities))
	for _, a := range activities {
		ok := outer(a)
		ik := inner(a)
		bucket, exists := seen[ok]
		if !exists {
			bucket = map[string]bool{}
			seen[ok] = bucket
			order = append(order, ok)
		}
		bucket[ik] = true
	}
	out := make([]float64, 0, len(order))
	for _, k := range order {
		out = append(out, float64(len(seen[k])))
	}
	return out
}
