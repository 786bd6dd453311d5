// Package batch merges two directories of summaries file by file.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/signalnine/ultramerge/internal/artifact"
	"github.com/signalnine/ultramerge/internal/merge"
	"github.com/signalnine/ultramerge/internal/runner"
	"github.com/signalnine/ultramerge/internal/summary"
)

const DefaultPattern = "*.xml"

type Options struct {
	Parallel int
	Pattern  string
	Merge    merge.Options
	// Verbose logs one line per processed file.
	Verbose bool
}

// Stats counts what a directory merge did. Total is the number of distinct
// file names seen across both inputs.
type Stats struct {
	Merged int
	Copied int
	Failed int
	Total  int
}

// Dirs merges every file name present in both dirA and dirB into outDir and
// copies names present in only one of them unchanged. Each name is handled
// independently; the returned error joins every per-file failure.
func Dirs(ctx context.Context, dirA, dirB, outDir string, opts Options) (*Stats, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := checkDistinct(outDir, dirA, dirB); err != nil {
		return nil, err
	}

	filesA, err := artifact.List(dirA, pattern)
	if err != nil {
		return nil, summary.Errorf(summary.ErrIO, dirA, "", "%w", err)
	}
	filesB, err := artifact.List(dirB, pattern)
	if err != nil {
		return nil, summary.Errorf(summary.ErrIO, dirB, "", "%w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, summary.Errorf(summary.ErrIO, outDir, "", "creating output dir: %w", err)
	}

	var merged, copied atomic.Int32
	names := artifact.Names(filesA, filesB)
	jobs := make([]runner.Job, 0, len(names))
	for _, name := range names {
		pathA, inA := filesA[name]
		pathB, inB := filesB[name]
		out := filepath.Join(outDir, name)

		switch {
		case inA && inB:
			jobs = append(jobs, func(context.Context) error {
				if err := merge.Files(pathA, pathB, out, opts.Merge); err != nil {
					return err
				}
				merged.Add(1)
				if opts.Verbose {
					log.Printf("merged %s", name)
				}
				return nil
			})
		default:
			src := pathA
			if inB {
				src = pathB
			}
			jobs = append(jobs, func(context.Context) error {
				if err := artifact.CopyFile(src, out, opts.Merge.NoClobber); err != nil {
					return summary.Errorf(summary.ErrIO, src, "", "cannot copy to %s: %w", out, err)
				}
				copied.Add(1)
				if opts.Verbose {
					log.Printf("copied %s", name)
				}
				return nil
			})
		}
	}

	errs := runner.RunPool(ctx, opts.Parallel, jobs)
	stats := &Stats{
		Merged: int(merged.Load()),
		Copied: int(copied.Load()),
		Failed: len(errs),
		Total:  len(names),
	}
	return stats, errors.Join(errs...)
}

func checkDistinct(outDir string, inputs ...string) error {
	out, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolving output dir: %w", err)
	}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolving input dir: %w", err)
		}
		if abs == out {
			return summary.Errorf(summary.ErrIO, outDir, "", "output directory must differ from input %s", in)
		}
	}
	return nil
}
