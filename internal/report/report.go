package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/ultramerge/internal/signature"
	"github.com/signalnine/ultramerge/internal/summary"
)

// Signature states.
const (
	SignatureOK      = "ok"
	SignatureMissing = "missing"
	SignatureBad     = "bad"
)

type Row struct {
	File          string  `json:"file"`
	Runs          int     `json:"runs"`
	ElapsedTime   int64   `json:"elapsed_time"`
	SuccessRate   float64 `json:"success_rate"`
	FitnessMean   float64 `json:"fitness_mean"`
	FitnessStdDev float64 `json:"fitness_std_dev"`
	BestFitness   string  `json:"best_fitness"`
	BestRun       int     `json:"best_run"`
	Solutions     int     `json:"solutions"`
	ElitePercent  string  `json:"elite_percent,omitempty"`
	EliteSize     int     `json:"elite_size"`
	Signature     string  `json:"signature"`
}

// NewRow summarizes a parsed report. raw is the document r was parsed from
// and is used to check its signature.
func NewRow(r *summary.Report, raw []byte) Row {
	row := Row{
		File:          r.File,
		Runs:          r.Runs,
		ElapsedTime:   r.ElapsedTime,
		SuccessRate:   r.SuccessRate,
		FitnessMean:   r.FitnessMean,
		FitnessStdDev: r.FitnessStdDev,
		BestFitness:   summary.FormatFloat(r.Best.Fitness),
		BestRun:       r.Best.Run,
		Solutions:     len(r.Solutions),
		Signature:     signatureState(raw),
	}
	if r.Elite != nil {
		row.ElitePercent = summary.FormatPercentile(r.Elite.Percentile)
		row.EliteSize = len(r.Elite.Items)
	}
	return row
}

func signatureState(raw []byte) string {
	err := signature.Verify(raw)
	switch {
	case err == nil:
		return SignatureOK
	case errors.Is(err, signature.ErrNoChecksum):
		return SignatureMissing
	default:
		return SignatureBad
	}
}

// Collect parses the given files, and every file matching pattern inside the
// given directories. The first unreadable or invalid summary aborts.
func Collect(paths []string, pattern string) ([]Row, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, summary.Errorf(summary.ErrIO, p, "", "cannot stat: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				ok, err := filepath.Match(pattern, d.Name())
				if err != nil {
					return fmt.Errorf("pattern %q: %w", pattern, err)
				}
				if ok {
					files = append(files, path)
				}
			}
			return nil
		})
		if err != nil {
			return nil, summary.Errorf(summary.ErrIO, p, "", "walking directory: %w", err)
		}
	}

	rows := make([]Row, 0, len(files))
	for _, f := range files {
		raw, err := summary.ReadFile(f)
		if err != nil {
			return nil, err
		}
		r, err := summary.Parse(raw, f)
		if err != nil {
			return nil, err
		}
		rows = append(rows, NewRow(r, raw))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].File < rows[j].File
	})
	return rows, nil
}

// Generate writes rows in the given format: table (default), markdown or json.
func Generate(rows []Row, format string, w io.Writer) error {
	switch format {
	case "markdown":
		return writeMarkdown(rows, w)
	case "json":
		return writeJSON(rows, w)
	default:
		return writeTable(rows, w)
	}
}

func elite(r Row) string {
	if r.ElitePercent == "" {
		return "-"
	}
	return fmt.Sprintf("%d @ %s%%", r.EliteSize, r.ElitePercent)
}

func writeTable(rows []Row, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRUNS\tSUCCESS\tMEAN\tSTD DEV\tBEST\tBEST RUN\tSOLUTIONS\tELITE\tSIGNATURE")
	fmt.Fprintln(tw, strings.Repeat("-", 100))
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%.0f%%\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.File, r.Runs, r.SuccessRate*100,
			summary.FormatFloat(r.FitnessMean), summary.FormatFloat(r.FitnessStdDev),
			r.BestFitness, r.BestRun, r.Solutions, elite(r), r.Signature)
	}
	return tw.Flush()
}

func writeMarkdown(rows []Row, w io.Writer) error {
	fmt.Fprintln(w, "| File | Runs | Success | Mean | Std Dev | Best | Best Run | Solutions | Elite | Signature |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|---|---|")
	for _, r := range rows {
		fmt.Fprintf(w, "| %s | %d | %.0f%% | %s | %s | %s | %d | %d | %s | %s |\n",
			r.File, r.Runs, r.SuccessRate*100,
			summary.FormatFloat(r.FitnessMean), summary.FormatFloat(r.FitnessStdDev),
			r.BestFitness, r.BestRun, r.Solutions, elite(r), r.Signature)
	}
	return nil
}

func writeJSON(rows []Row, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
