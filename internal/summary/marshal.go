package summary

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/signalnine/ultramerge/internal/signature"
)

const indentUnit = "  "

// FormatFloat renders v with 12 significant digits, trailing zeros trimmed.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// Marshal renders r in its canonical form with a zeroed checksum field,
// ready to be signed. The output depends only on the report's values.
func Marshal(r *Report) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	root := elem("ultra", summaryNode(r), leaf("checksum", signature.Placeholder))

	var buf bytes.Buffer
	root.write(&buf, 0)
	return buf.Bytes(), nil
}

func summaryNode(r *Report) *node {
	solutions := elem("solutions")
	for _, s := range r.Solutions {
		solutions.add(leaf("run", strconv.Itoa(s)))
	}

	s := elem("summary",
		leaf("runs", strconv.Itoa(r.Runs)),
		leaf("elapsed_time", strconv.FormatInt(r.ElapsedTime, 10)),
		leaf("success_rate", FormatFloat(r.SuccessRate)),
		elem("distributions",
			elem("fitness",
				leaf("mean", FormatFloat(r.FitnessMean)),
				leaf("standard_deviation", FormatFloat(r.FitnessStdDev)),
			),
		),
		elem("best",
			leaf("fitness", FormatFloat(r.Best.Fitness)),
			leaf("accuracy", FormatFloat(r.Best.Accuracy)),
			leaf("run", strconv.Itoa(r.Best.Run)),
			leaf("code", r.Best.Code),
		),
		solutions,
	)

	if r.Elite != nil {
		elite := elem("elite")
		elite.attr("percentile", FormatPercentile(r.Elite.Percentile))
		for _, it := range r.Elite.Items {
			run := elem("run")
			run.attr("id", strconv.Itoa(it.RunID))
			if it.Fitness != nil {
				run.add(leaf("fitness", FormatFloat(*it.Fitness)))
			}
			if it.Accuracy != nil {
				run.add(leaf("accuracy", FormatFloat(*it.Accuracy)))
			}
			elite.add(run)
		}
		s.add(elite)
	}
	return s
}

// FormatPercentile renders a fraction as a percentage number (0.05 is "5").
func FormatPercentile(fraction float64) string {
	return FormatFloat(fraction * 100)
}

type node struct {
	name     string
	attrs    [][2]string
	text     string
	hasText  bool
	children []*node
}

func elem(name string, children ...*node) *node {
	return &node{name: name, children: children}
}

func leaf(name, text string) *node {
	return &node{name: name, text: text, hasText: true}
}

func (n *node) add(c *node) {
	n.children = append(n.children, c)
}

func (n *node) attr(key, value string) {
	n.attrs = append(n.attrs, [2]string{key, value})
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\r", "&#13;", "\n", "&#10;", "\t", "&#09;",
	)
)

// write emits n at the given depth. Children go one per line, indented by
// two spaces per level; the closing tag of the root has no newline after it.
func (n *node) write(buf *bytes.Buffer, depth int) {
	buf.WriteByte('<')
	buf.WriteString(n.name)
	for _, a := range n.attrs {
		buf.WriteByte(' ')
		buf.WriteString(a[0])
		buf.WriteString(`="`)
		buf.WriteString(attrEscaper.Replace(a[1]))
		buf.WriteByte('"')
	}

	switch {
	case len(n.children) > 0:
		buf.WriteByte('>')
		for _, c := range n.children {
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat(indentUnit, depth+1))
			c.write(buf, depth+1)
		}
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(indentUnit, depth))
	case n.hasText && n.text != "":
		buf.WriteByte('>')
		buf.WriteString(textEscaper.Replace(n.text))
	default:
		buf.WriteString(" />")
		return
	}
	buf.WriteString("</")
	buf.WriteString(n.name)
	buf.WriteByte('>')
}
