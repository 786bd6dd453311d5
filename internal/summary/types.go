package summary

// Report is the summary of one batch of evolutionary runs, or of several
// batches merged together. Reports are built once and not modified.
type Report struct {
	// File is where the report was read from. It is only used to label
	// errors and is empty for merged reports.
	File string

	Runs          int
	ElapsedTime   int64
	SuccessRate   float64
	FitnessMean   float64
	FitnessStdDev float64
	Best          Best

	// Solutions lists the indices of the runs that reached a solution.
	Solutions []int

	// Elite is nil when the report carries no elite block.
	Elite *Elite

	// Checksum is the text of the <checksum> element of a parsed document.
	// The serializer ignores it: signatures are always recomputed.
	Checksum string
}

// Best is the best-of-run result of a report.
type Best struct {
	Fitness  float64
	Accuracy float64
	Run      int
	Code     string
}

// Elite is the ranked subset of runs flagged as top performers.
type Elite struct {
	// Percentile is the elite size as a fraction of the runs, in [0,1].
	Percentile float64
	Items      []EliteItem
}

// EliteItem is one elite run. Fitness and Accuracy are nil when the
// document does not record them.
type EliteItem struct {
	RunID    int
	Fitness  *float64
	Accuracy *float64
}

// Offset returns a copy of the item with its run index shifted by n.
func (it EliteItem) Offset(n int) EliteItem {
	it.RunID += n
	return it
}
