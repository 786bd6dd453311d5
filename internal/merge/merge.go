// Package merge combines two batch summaries into one, as if all runs had
// been part of a single batch. Runs of the first report keep their indices;
// runs of the second are shifted by the first report's run count.
package merge

import (
	"fmt"

	"github.com/signalnine/ultramerge/internal/signature"
	"github.com/signalnine/ultramerge/internal/stats"
	"github.com/signalnine/ultramerge/internal/summary"
)

// SelectBest returns the better best-of-run record. Ties go to a.
func SelectBest(a, b *summary.Report) summary.Best {
	if a.Best.Fitness >= b.Best.Fitness {
		return a.Best
	}
	best := b.Best
	best.Run += a.Runs
	return best
}

// ReindexSolutions returns a's solution runs followed by b's, shifted.
func ReindexSolutions(a, b *summary.Report) []int {
	out := make([]int, 0, len(a.Solutions)+len(b.Solutions))
	out = append(out, a.Solutions...)
	for _, s := range b.Solutions {
		out = append(out, s+a.Runs)
	}
	return out
}

// Reports merges two validated reports. Neither input is modified.
func Reports(a, b *summary.Report) (*summary.Report, error) {
	runs := a.Runs + b.Runs
	if runs <= 0 {
		return nil, summary.Errorf(summary.ErrArithmetic, "", "runs",
			"merged runs is %d; cannot compute merged statistics", runs)
	}

	arith := func(err error) error {
		return summary.Errorf(summary.ErrArithmetic, "", "", "pooling statistics: %w", err)
	}
	success, err := stats.CombineSuccessRate(a.SuccessRate, a.Runs, b.SuccessRate, b.Runs)
	if err != nil {
		return nil, arith(err)
	}
	mean, err := stats.CombineMean(a.FitnessMean, a.Runs, b.FitnessMean, b.Runs)
	if err != nil {
		return nil, arith(err)
	}
	std, err := stats.CombineStd(a.FitnessMean, a.FitnessStdDev, a.Runs,
		b.FitnessMean, b.FitnessStdDev, b.Runs)
	if err != nil {
		return nil, arith(err)
	}

	elite, err := MergeElite(a, b)
	if err != nil {
		return nil, err
	}

	m := &summary.Report{
		Runs:          runs,
		ElapsedTime:   a.ElapsedTime + b.ElapsedTime,
		SuccessRate:   success,
		FitnessMean:   mean,
		FitnessStdDev: std,
		Best:          SelectBest(a, b),
		Solutions:     ReindexSolutions(a, b),
		Elite:         elite,
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("merged summary is invalid: %w", err)
	}
	return m, nil
}

// Signed merges a and b and returns the signed serialized result.
func Signed(a, b *summary.Report) ([]byte, error) {
	m, err := Reports(a, b)
	if err != nil {
		return nil, err
	}
	doc, err := summary.Marshal(m)
	if err != nil {
		return nil, err
	}
	signed, err := signature.Embed(doc)
	if err != nil {
		return nil, fmt.Errorf("signing merged summary: %w", err)
	}
	return signed, nil
}
