package merge

import (
	"log"

	"github.com/signalnine/ultramerge/internal/artifact"
	"github.com/signalnine/ultramerge/internal/signature"
	"github.com/signalnine/ultramerge/internal/summary"
)

// Options control how Files reads its inputs and writes its output.
type Options struct {
	// VerifyInputs rejects inputs whose embedded checksum does not match.
	// Inputs without a checksum are accepted.
	VerifyInputs bool
	// NoClobber refuses to replace an existing output file.
	NoClobber bool
}

// Files merges the summaries at pathA and pathB into out. Nothing is written
// unless the whole merge succeeds.
func Files(pathA, pathB, out string, opts Options) error {
	a, err := readInput(pathA, opts.VerifyInputs)
	if err != nil {
		return err
	}
	b, err := readInput(pathB, opts.VerifyInputs)
	if err != nil {
		return err
	}

	signed, err := Signed(a, b)
	if err != nil {
		return err
	}
	if err := artifact.WriteFile(out, signed, opts.NoClobber); err != nil {
		return summary.Errorf(summary.ErrIO, out, "", "cannot write output: %w", err)
	}
	return nil
}

func readInput(path string, verify bool) (*summary.Report, error) {
	data, err := summary.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := summary.Parse(data, path)
	if err != nil {
		return nil, err
	}
	if !verify {
		return r, nil
	}
	if r.Checksum == "" {
		log.Printf("warning: %s has no checksum, accepting it unverified", path)
		return r, nil
	}
	if err := signature.Verify(data); err != nil {
		return nil, summary.Errorf(summary.ErrFormat, path, "checksum", "signature check failed: %w", err)
	}
	return r, nil
}
