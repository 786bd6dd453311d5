package summary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jacoelho/xsd/pkg/xmltext"
)

// element is a node of a decoded document. Lookups by name return the first
// matching child, and text holds only the character data that precedes the
// first child element.
type element struct {
	name     string
	attrs    map[string]string
	text     string
	children []*element
}

func (n *element) child(name string) *element {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *element) all(name string) []*element {
	if n == nil {
		return nil
	}
	var out []*element
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// decode builds the element tree for a single-rooted document.
func decode(data []byte) (*element, error) {
	dec := xmltext.NewDecoder(bytes.NewReader(data),
		xmltext.ResolveEntities(true),
		xmltext.CoalesceCharData(true),
	)
	var (
		root  *element
		stack []*element
		text  strings.Builder
	)
	for {
		tok, err := dec.ReadToken()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return nil, fmt.Errorf("unexpected end of input inside <%s>", stack[len(stack)-1].name)
			}
			if root == nil {
				return nil, errNoRoot
			}
			return root, nil
		}
		if err != nil {
			return nil, err
		}

		switch tok.Kind {
		case xmltext.KindStartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("junk after document element: <%s>", dec.SpanBytes(tok.Name.Full))
			}
			n := &element{name: string(dec.SpanBytes(tok.Name.Full))}
			for _, a := range tok.Attrs {
				if n.attrs == nil {
					n.attrs = make(map[string]string, len(tok.Attrs))
				}
				n.attrs[string(dec.SpanBytes(a.Name.Full))] = string(dec.SpanBytes(a.ValueSpan))
			}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				if len(parent.children) == 0 {
					parent.text = text.String()
				}
				parent.children = append(parent.children, n)
			}
			text.Reset()
			stack = append(stack, n)
		case xmltext.KindEndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", dec.SpanBytes(tok.Name.Full))
			}
			n := stack[len(stack)-1]
			if len(n.children) == 0 {
				n.text = text.String()
			}
			text.Reset()
			stack = stack[:len(stack)-1]
		case xmltext.KindCharData, xmltext.KindCDATA:
			chunk := dec.SpanBytes(tok.Text)
			if len(stack) == 0 {
				if len(bytes.TrimSpace(chunk)) > 0 {
					return nil, fmt.Errorf("character data outside the document element")
				}
				continue
			}
			if len(stack[len(stack)-1].children) == 0 {
				text.Write(chunk)
			}
		}
	}
}

var errNoRoot = errors.New("no root element")

// ParseFile reads and parses the summary stored at path.
func ParseFile(path string) (*Report, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// ReadFile reads a summary document, reporting failures as ErrIO.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Errorf(ErrIO, path, "", "file not found: %w", err)
		}
		return nil, Errorf(ErrIO, path, "", "cannot read file: %w", err)
	}
	return data, nil
}

// Parse decodes and validates a serialized summary. file labels errors. No
// report is returned unless the whole document is valid.
func Parse(data []byte, file string) (*Report, error) {
	root, err := decode(data)
	if err != nil {
		return nil, Errorf(ErrFormat, file, "", "XML parse error: %w", err)
	}

	c := converter{file: file}
	r, err := c.report(root)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

type converter struct {
	file string
}

func (c *converter) report(root *element) (*Report, error) {
	s := root.child("summary")
	if s == nil {
		return nil, c.missing("summary")
	}

	r := &Report{File: c.file}
	var err error

	if r.Runs, err = c.integer(s.child("runs"), "runs"); err != nil {
		return nil, err
	}
	if r.ElapsedTime, err = c.integer64(s.child("elapsed_time"), "elapsed_time"); err != nil {
		return nil, err
	}
	if r.SuccessRate, err = c.number(s.child("success_rate"), "success_rate"); err != nil {
		return nil, err
	}

	fit := s.child("distributions").child("fitness")
	if r.FitnessMean, err = c.number(fit.child("mean"), "distributions/fitness/mean"); err != nil {
		return nil, err
	}
	if r.FitnessStdDev, err = c.number(fit.child("standard_deviation"), "distributions/fitness/standard_deviation"); err != nil {
		return nil, err
	}

	best := s.child("best")
	if r.Best.Fitness, err = c.number(best.child("fitness"), "best/fitness"); err != nil {
		return nil, err
	}
	if r.Best.Accuracy, err = c.number(best.child("accuracy"), "best/accuracy"); err != nil {
		return nil, err
	}
	if r.Best.Run, err = c.integer(best.child("run"), "best/run"); err != nil {
		return nil, err
	}
	if r.Best.Code, err = c.text(best.child("code"), "best/code"); err != nil {
		return nil, err
	}

	if r.Solutions, err = c.solutions(s.child("solutions")); err != nil {
		return nil, err
	}
	if r.Elite, err = c.elite(s.child("elite")); err != nil {
		return nil, err
	}

	if sum := root.child("checksum"); sum != nil {
		r.Checksum = strings.TrimSpace(sum.text)
	}
	return r, nil
}

func (c *converter) solutions(n *element) ([]int, error) {
	if n == nil {
		return nil, c.missing("solutions")
	}
	entries := n.all("run")
	runs := make([]int, 0, len(entries))
	for i, run := range entries {
		path := fmt.Sprintf("solutions/run[%d]", i)
		text := strings.TrimSpace(run.text)
		if text == "" {
			return nil, Errorf(ErrMissingField, c.file, path, "empty <solutions><run> entry")
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, Errorf(ErrFormat, c.file, path, "non-integer solution run: '%s'", text)
		}
		runs = append(runs, v)
	}
	return runs, nil
}

func (c *converter) elite(n *element) (*Elite, error) {
	if n == nil {
		return nil, nil
	}
	raw, ok := n.attrs["percentile"]
	if !ok {
		return nil, Errorf(ErrMissingField, c.file, "elite@percentile", "missing required attribute 'elite@percentile'")
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, Errorf(ErrMissingField, c.file, "elite@percentile", "attribute 'elite@percentile' is empty")
	}
	p, err := ParsePercentile(text)
	if err != nil {
		kind := ErrFormat
		if errors.Is(err, errPercentileRange) {
			kind = ErrRange
		}
		return nil, Errorf(kind, c.file, "elite@percentile", "attribute 'elite@percentile': %w", err)
	}

	runs := n.all("run")
	e := &Elite{Percentile: p, Items: make([]EliteItem, 0, len(runs))}
	for i, run := range runs {
		path := fmt.Sprintf("elite/run[%d]", i)
		idText := strings.TrimSpace(run.attrs["id"])
		if idText == "" {
			return nil, Errorf(ErrMissingField, c.file, path+"@id", "missing required attribute '%s@id'", path)
		}
		id, err := strconv.Atoi(idText)
		if err != nil {
			return nil, Errorf(ErrFormat, c.file, path+"@id", "attribute '%s@id' is not an int: '%s'", path, idText)
		}
		item := EliteItem{RunID: id}
		if item.Fitness, err = c.optionalFloat(run.child("fitness"), path+"/fitness"); err != nil {
			return nil, err
		}
		if item.Accuracy, err = c.optionalFloat(run.child("accuracy"), path+"/accuracy"); err != nil {
			return nil, err
		}
		e.Items = append(e.Items, item)
	}
	return e, nil
}

func (c *converter) missing(path string) error {
	return Errorf(ErrMissingField, c.file, path, "missing required node '%s'", path)
}

func (c *converter) text(n *element, path string) (string, error) {
	if n == nil {
		return "", c.missing(path)
	}
	text := strings.TrimSpace(n.text)
	if text == "" {
		return "", Errorf(ErrMissingField, c.file, path, "node '%s' is empty", path)
	}
	return text, nil
}

func (c *converter) integer(n *element, path string) (int, error) {
	text, err := c.text(n, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, c.numError(err, path, "an int", text)
	}
	return v, nil
}

func (c *converter) integer64(n *element, path string) (int64, error) {
	text, err := c.text(n, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, c.numError(err, path, "an int", text)
	}
	return v, nil
}

func (c *converter) number(n *element, path string) (float64, error) {
	text, err := c.text(n, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, c.numError(err, path, "a float", text)
	}
	return v, nil
}

// optionalFloat treats an absent or blank node as "not recorded".
func (c *converter) optionalFloat(n *element, path string) (*float64, error) {
	if n == nil || strings.TrimSpace(n.text) == "" {
		return nil, nil
	}
	v, err := c.number(n, path)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *converter) numError(err error, path, what, text string) error {
	if errors.Is(err, strconv.ErrRange) {
		return Errorf(ErrRange, c.file, path, "node '%s' is out of range: '%s'", path, text)
	}
	return Errorf(ErrFormat, c.file, path, "node '%s' is not %s: '%s'", path, what, text)
}

var errPercentileRange = errors.New("outside [0,1]")

// ParsePercentile converts an elite percentile attribute to a fraction. A
// value above 1 is a percentage ("5" is 0.05), as is any value carrying a
// '%' suffix; anything else is already a fraction ("0.05").
func ParsePercentile(text string) (float64, error) {
	text = strings.TrimSpace(text)
	percent := strings.HasSuffix(text, "%")
	if percent {
		text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: '%s'", text)
	}
	if percent || v > 1 {
		v /= 100
	}
	if !(v >= 0 && v <= 1) {
		return 0, fmt.Errorf("percentile %v: %w", v, errPercentileRange)
	}
	return v, nil
}
