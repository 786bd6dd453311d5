package merge

import (
	"cmp"
	"math"
	"slices"

	"github.com/signalnine/ultramerge/internal/summary"
)

// PercentileTolerance is how far two elite percentiles may drift apart and
// still be considered the same contract.
const PercentileTolerance = 1e-12

// MergeElite combines the elite blocks of a and b. B's run ids are shifted
// into the merged numbering.
//
// When both reports have an elite block, the merged block re-ranks the union
// of the two lists and keeps the best floor(f*N) of them, clamped to [1,N].
// Runs that neither batch flagged as elite are not visible here, so the
// result is the best of the previously selected elites and not necessarily
// the true top of the combined population.
func MergeElite(a, b *summary.Report) (*summary.Elite, error) {
	switch {
	case a.Elite == nil && b.Elite == nil:
		return nil, nil
	case b.Elite == nil:
		return &summary.Elite{
			Percentile: a.Elite.Percentile,
			Items:      slices.Clone(a.Elite.Items),
		}, nil
	case a.Elite == nil:
		return &summary.Elite{
			Percentile: b.Elite.Percentile,
			Items:      offsetItems(b.Elite.Items, a.Runs),
		}, nil
	}

	f := a.Elite.Percentile
	if math.Abs(f-b.Elite.Percentile) > PercentileTolerance {
		return nil, summary.Errorf(summary.ErrConflict, "", "elite@percentile",
			"elite percentile mismatch: %s (%s) vs %s (%s)",
			summary.FormatPercentile(f), a.File,
			summary.FormatPercentile(b.Elite.Percentile), b.File)
	}

	pool := make([]summary.EliteItem, 0, len(a.Elite.Items)+len(b.Elite.Items))
	pool = append(pool, a.Elite.Items...)
	pool = append(pool, offsetItems(b.Elite.Items, a.Runs)...)

	// Stable, so equal keys keep pool order: A's items before B's.
	slices.SortStableFunc(pool, func(x, y summary.EliteItem) int {
		return compareRank(rankOf(y), rankOf(x))
	})

	n := eliteSize(f, a.Runs+b.Runs)
	items := make([]summary.EliteItem, 0, n)
	seen := make(map[int]struct{}, n)
	for _, it := range pool {
		if len(items) == n {
			break
		}
		if _, dup := seen[it.RunID]; dup {
			continue
		}
		seen[it.RunID] = struct{}{}
		items = append(items, it)
	}
	return &summary.Elite{Percentile: f, Items: items}, nil
}

// eliteSize is the number of elites kept out of runs for fraction f.
func eliteSize(f float64, runs int) int {
	if f <= 0 {
		return 0
	}
	n := int(math.Floor(f * float64(runs)))
	return min(max(n, 1), runs)
}

func offsetItems(items []summary.EliteItem, n int) []summary.EliteItem {
	out := make([]summary.EliteItem, len(items))
	for i, it := range items {
		out[i] = it.Offset(n)
	}
	return out
}

// rank orders elite items. An unrecorded or non-finite fitness or accuracy
// ranks as -Inf, i.e. below every recorded value.
type rank struct {
	fitness  float64
	accuracy float64
}

func rankOf(it summary.EliteItem) rank {
	return rank{fitness: rankValue(it.Fitness), accuracy: rankValue(it.Accuracy)}
}

func rankValue(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return math.Inf(-1)
	}
	return *v
}

// compareRank compares fitness first, then accuracy.
func compareRank(x, y rank) int {
	if c := cmp.Compare(x.fitness, y.fitness); c != 0 {
		return c
	}
	return cmp.Compare(x.accuracy, y.accuracy)
}
