package features

import (
	"sort"
	"strconv"

	"github.com/ryansgi/rabbit/internal/core/mapping"
	perr "github.com/ryansgi/rabbit/internal/platform/errors"
)

func repoKey(a mapping.Activity) string { return strconv.FormatInt(a.RepoID, 10) }
func kindKey(a mapping.Activity) string { return a.Kind }

// Extract computes the 38-feature Row for one contributor's activities.
// Activities must all belong to the same actor; mixing actors is a caller
// bug, not a data condition, and is rejected rather than silently mixed
// into one vector. An empty activity slice yields a Row with every
// distribution feature at zero: callers that want the "Unknown" early-exit
// behavior for zero activities should check len(activities) before calling
func Extract(actor string, activities []mapping.Activity) (Row, error) {
	for _, a := range activities {
		if a.Actor != actor {
			return Row{}, perr.InvalidArgf(
				"features: activity actor %q does not match expected actor %q", a.Actor, actor)
		}
	}

	sorted := append([]mapping.Activity(nil), activities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartDate.Before(sorted[j].StartDate) })

	row := Row{
		NA:  len(sorted),
		NT:  countDistinct(sorted, kindKey),
		NOR: countDistinctOwners(sorted),
	}
	if len(sorted) == 0 {
		return row, nil
	}

	repoCount := countDistinct(sorted, repoKey)
	if repoCount > 0 {
		row.ORR = round3(float64(row.NOR) / float64(repoCount))
	}

	dca := computeStats(dcaDiffs(sorted))
	row.DCAMean, row.DCAMedian, row.DCAStd, row.DCAGini = round3(dca.Mean), round3(dca.Median), round3(dca.Std), round3(dca.Gini)

	nar := computeStats(groupCounts(sorted, repoKey))
	row.NARMean, row.NARMedian, row.NARGini, row.NARIQR = round3(nar.Mean), round3(nar.Median), round3(nar.Gini), round3(nar.IQR)

	ntr := computeStats(groupDistinctCounts(sorted, repoKey, kindKey))
	row.NTRMean, row.NTRMedian, row.NTRStd, row.NTRGini = round3(ntr.Mean), round3(ntr.Median), round3(ntr.Std), round3(ntr.Gini)

	nat := computeStats(groupCounts(sorted, kindKey))
	row.NATMean, row.NATMedian, row.NATStd, row.NATGini, row.NATIQR =
		round3(nat.Mean), round3(nat.Median), round3(nat.Std), round3(nat.Gini), round3(nat.IQR)

	repoRuns := groupRuns(sorted, repoKey)
	ncar := computeStats(runCounts(repoRuns))
	row.NCARMean, row.NCARStd, row.NCARIQR = round3(ncar.Mean), round3(ncar.Std), round3(ncar.IQR)

	dcar := computeStats(timeSpent(repoRuns))
	row.DCARMean, row.DCARMedian, row.DCARStd, row.DCARIQR = round3(dcar.Mean), round3(dcar.Median), round3(dcar.Std), round3(dcar.IQR)

	daar := computeStats(timeToSwitch(repoRuns))
	row.DAARMean, row.DAARMedian, row.DAARStd, row.DAARGini, row.DAARIQR =
		round3(daar.Mean), round3(daar.Median), round3(daar.Std), round3(daar.Gini), round3(daar.IQR)

	kindRuns := groupRuns(sorted, kindKey)
	dcat := computeStats(timeToSwitch(kindRuns))
	row.DCATMean, row.DCATMedian, row.DCATStd, row.DCATGini, row.DCATIQR =
		round3(dcat.Mean), round3(dcat.Median), round3(dcat.Std), round3(dcat.Gini), round3(dcat.IQR)

	return row, nil
}

func countDistinct(activities []mapping.Activity, key func(mapping.Activity) string) int {
	seen := map[string]struct{}{}
	for _, a := range activities {
		seen[key(a)] = struct{}{}
	}
	return len(seen)
}

func countDistinctOwners(activities []mapping.Activity) int {
	seen := map[string]struct{}{}
	for _, a := range activities {
		seen[mapping.Owner(a.RepoName)] = struct{}{}
	}
	return len(seen)
}

// dcaDiffs returns the gap, in hours, between each chronologically adjacent
// pair of activities. N activities produce N-1 diffs; a single activity
// produces none
func dcaDiffs(sorted []mapping.Activity) []float64 {
	if len(sorted) < 2 {
		return nil
	}
	out := make([]float64, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		out = append(out, sorted[i+1].StartDate.Sub(sorted[i].StartDate).Hours())
	}
	return out
}
