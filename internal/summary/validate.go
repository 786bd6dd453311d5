package summary

import (
	"fmt"
	"math"
	"strings"
)

// Validate checks the report invariants and returns the first violation as
// an *Error of kind ErrRange or ErrMissingField.
func (r *Report) Validate() error {
	rangeErr := func(path, format string, args ...any) error {
		return Errorf(ErrRange, r.File, path, format, args...)
	}

	if r.Runs <= 0 {
		return rangeErr("runs", "runs must be positive")
	}
	if r.ElapsedTime < 0 {
		return rangeErr("elapsed_time", "elapsed_time must be non-negative")
	}
	if !(r.SuccessRate >= 0 && r.SuccessRate <= 1) {
		return rangeErr("success_rate", "success_rate out of range: %s", FormatFloat(r.SuccessRate))
	}
	if !isFinite(r.FitnessMean) {
		return rangeErr("distributions/fitness/mean", "mean must be finite, got %s", FormatFloat(r.FitnessMean))
	}
	if !isFinite(r.FitnessStdDev) || r.FitnessStdDev < 0 {
		return rangeErr("distributions/fitness/standard_deviation",
			"standard_deviation must be finite and non-negative, got %s", FormatFloat(r.FitnessStdDev))
	}

	if math.IsNaN(r.Best.Fitness) {
		return rangeErr("best/fitness", "best/fitness must be a number, got nan")
	}
	if r.Best.Run < 0 || r.Best.Run >= r.Runs {
		return rangeErr("best/run", "best/run out of range: %d (runs=%d)", r.Best.Run, r.Runs)
	}
	if strings.TrimSpace(r.Best.Code) == "" {
		return Errorf(ErrMissingField, r.File, "best/code", "node 'best/code' is empty")
	}

	seen := make(map[int]struct{}, len(r.Solutions))
	for i, s := range r.Solutions {
		path := fmt.Sprintf("solutions/run[%d]", i)
		if s < 0 {
			return rangeErr(path, "solutions contains negative run index: %d", s)
		}
		if s >= r.Runs {
			return rangeErr(path, "solutions contains run index >= runs: %d (runs=%d)", s, r.Runs)
		}
		if _, dup := seen[s]; dup {
			return rangeErr(path, "duplicate run indices in solutions: %d", s)
		}
		seen[s] = struct{}{}
	}

	if r.Elite != nil {
		return r.validateElite()
	}
	return nil
}

func (r *Report) validateElite() error {
	e := r.Elite
	if !(e.Percentile >= 0 && e.Percentile <= 1) {
		return Errorf(ErrRange, r.File, "elite@percentile", "elite percentile out of range: %s", FormatFloat(e.Percentile))
	}

	seen := make(map[int]struct{}, len(e.Items))
	for i, it := range e.Items {
		path := fmt.Sprintf("elite/run[%d]", i)
		if it.RunID < 0 || it.RunID >= r.Runs {
			return Errorf(ErrRange, r.File, path+"@id", "elite run id out of range: %d (runs=%d)", it.RunID, r.Runs)
		}
		if _, dup := seen[it.RunID]; dup {
			return Errorf(ErrRange, r.File, path+"@id", "duplicate run id in elite: %d", it.RunID)
		}
		seen[it.RunID] = struct{}{}

		if it.Fitness != nil && !isFinite(*it.Fitness) {
			return Errorf(ErrRange, r.File, path+"/fitness", "elite fitness must be finite, got %s", FormatFloat(*it.Fitness))
		}
		if it.Accuracy != nil && !isFinite(*it.Accuracy) {
			return Errorf(ErrRange, r.File, path+"/accuracy", "elite accuracy must be finite, got %s", FormatFloat(*it.Accuracy))
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
