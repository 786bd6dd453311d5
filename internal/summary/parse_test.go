package summary_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/ultramerge/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `<ultra>
  <summary>
    <runs>10</runs>
    <elapsed_time>1234</elapsed_time>
    <success_rate>0.3</success_rate>
    <distributions>
      <fitness>
        <mean>-4.5</mean>
        <standard_deviation>1.25</standard_deviation>
      </fitness>
    </distributions>
    <best>
      <fitness>5</fitness>
      <accuracy>0.75</accuracy>
      <run>3</run>
      <code>  (+ X1 X2)  </code>
    </best>
    <solutions>
      <run>3</run>
      <run>7</run>
      <run>1</run>
    </solutions>
    <elite percentile="20">
      <run id="3">
        <fitness>5</fitness>
        <accuracy>0.75</accuracy>
      </run>
      <run id="7"><fitness>4</fitness></run>
      <run id="9" />
    </elite>
  </summary>
  <checksum>0123ABCD</checksum>
</ultra>`

func TestParseValid(t *testing.T) {
	r, err := summary.Parse([]byte(validDoc), "a.xml")
	require.NoError(t, err)

	assert.Equal(t, "a.xml", r.File)
	assert.Equal(t, 10, r.Runs)
	assert.Equal(t, int64(1234), r.ElapsedTime)
	assert.Equal(t, 0.3, r.SuccessRate)
	assert.Equal(t, -4.5, r.FitnessMean)
	assert.Equal(t, 1.25, r.FitnessStdDev)
	assert.Equal(t, summary.Best{Fitness: 5, Accuracy: 0.75, Run: 3, Code: "(+ X1 X2)"}, r.Best)
	assert.Equal(t, []int{3, 7, 1}, r.Solutions)
	assert.Equal(t, "0123ABCD", r.Checksum)

	require.NotNil(t, r.Elite)
	assert.InDelta(t, 0.2, r.Elite.Percentile, 1e-15)
	require.Len(t, r.Elite.Items, 3)
	assert.Equal(t, 3, r.Elite.Items[0].RunID)
	require.NotNil(t, r.Elite.Items[0].Fitness)
	assert.Equal(t, 5.0, *r.Elite.Items[0].Fitness)
	require.NotNil(t, r.Elite.Items[1].Fitness)
	assert.Nil(t, r.Elite.Items[1].Accuracy)
	assert.Nil(t, r.Elite.Items[2].Fitness)
	assert.Nil(t, r.Elite.Items[2].Accuracy)
}

func TestParseWithoutEliteOrChecksum(t *testing.T) {
	doc := cut(cut(validDoc, "<elite", "</elite>"), "<checksum>", "</checksum>")
	r, err := summary.Parse([]byte(doc), "a.xml")
	require.NoError(t, err)
	assert.Nil(t, r.Elite)
	assert.Empty(t, r.Checksum)
}

func TestParseEmptySolutions(t *testing.T) {
	doc := cut(validDoc, "<solutions>", "</solutions>")
	doc = strings.Replace(doc, "<summary>", "<summary><solutions />", 1)
	r, err := summary.Parse([]byte(doc), "a.xml")
	require.NoError(t, err)
	assert.Empty(t, r.Solutions)
}

func TestParseRepeatedElementsTakeFirst(t *testing.T) {
	doc := replace(validDoc, "<runs>10</runs>", "<runs>10</runs><runs>1</runs>")
	doc = replace(doc, "<run>3</run>\n      <code>", "<run>3</run><run>oops</run>\n      <code>")
	doc = replace(doc, "<elite percentile=\"20\">", "<elite percentile=\"20\"><!-- first -->")
	doc = replace(doc, "</elite>", "</elite><elite percentile=\"bogus\" />")
	doc = replace(doc, "</summary>", "</summary><summary><runs>x</runs></summary>")
	doc = replace(doc, "<checksum>0123ABCD</checksum>", "<checksum>0123ABCD</checksum><checksum>FFFFFFFF</checksum>")

	r, err := summary.Parse([]byte(doc), "a.xml")
	require.NoError(t, err)
	assert.Equal(t, 10, r.Runs)
	assert.Equal(t, 3, r.Best.Run)
	require.NotNil(t, r.Elite)
	assert.InDelta(t, 0.2, r.Elite.Percentile, 1e-15)
	assert.Len(t, r.Elite.Items, 3)
	assert.Equal(t, "0123ABCD", r.Checksum)
}

func TestParseMixedContentKeepsLeadingText(t *testing.T) {
	doc := replace(validDoc, "<code>  (+ X1 X2)  </code>", "<code>ab<x/>cd</code>")
	doc = replace(doc, "<runs>10</runs>", "<runs>10<!-- note -->0<i>7</i>9</runs>")

	r, err := summary.Parse([]byte(doc), "a.xml")
	require.NoError(t, err)
	assert.Equal(t, "ab", r.Best.Code)
	assert.Equal(t, 100, r.Runs)

	doc = replace(validDoc, "<code>  (+ X1 X2)  </code>", "<code><x>ab</x>cd</code>")
	_, err = summary.Parse([]byte(doc), "a.xml")
	require.Error(t, err)
	assert.ErrorIs(t, err, summary.ErrMissingField)
	assert.Equal(t, "a.xml: node 'best/code' is empty", err.Error())
}

func TestParseEntities(t *testing.T) {
	doc := replace(validDoc, "<code>  (+ X1 X2)  </code>", "<code>(&lt; X1 &amp;amp;)<![CDATA[ <raw>]]></code>")
	r, err := summary.Parse([]byte(doc), "a.xml")
	require.NoError(t, err)
	assert.Equal(t, "(< X1 &amp;) <raw>", r.Best.Code)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind error
		path string
	}{
		{"not xml", "this is not xml", summary.ErrFormat, ""},
		{"empty document", "", summary.ErrFormat, ""},
		{"unclosed tag", strings.Replace(validDoc, "</ultra>", "", 1), summary.ErrFormat, ""},
		{"junk after root", validDoc + "<more/>", summary.ErrFormat, ""},
		{"text after root", validDoc + "trailing", summary.ErrFormat, ""},
		{"missing summary", "<ultra><checksum>00000000</checksum></ultra>", summary.ErrMissingField, "summary"},
		{"missing runs", cut(validDoc, "<runs>", "</runs>"), summary.ErrMissingField, "runs"},
		{"blank runs", replace(validDoc, "<runs>10</runs>", "<runs>   </runs>"), summary.ErrMissingField, "runs"},
		{"runs not int", replace(validDoc, "<runs>10</runs>", "<runs>ten</runs>"), summary.ErrFormat, "runs"},
		{"runs zero", replace(validDoc, "<runs>10</runs>", "<runs>0</runs>"), summary.ErrRange, "runs"},
		{"negative elapsed", replace(validDoc, "<elapsed_time>1234", "<elapsed_time>-1"), summary.ErrRange, "elapsed_time"},
		{"success above one", replace(validDoc, "<success_rate>0.3", "<success_rate>1.5"), summary.ErrRange, "success_rate"},
		{"success nan", replace(validDoc, "<success_rate>0.3", "<success_rate>nan"), summary.ErrRange, "success_rate"},
		{"success not float", replace(validDoc, "<success_rate>0.3", "<success_rate>high"), summary.ErrFormat, "success_rate"},
		{"missing distributions", cut(validDoc, "<distributions>", "</distributions>"), summary.ErrMissingField, "distributions/fitness/mean"},
		{"mean infinite", replace(validDoc, "<mean>-4.5", "<mean>inf"), summary.ErrRange, "distributions/fitness/mean"},
		{"negative std", replace(validDoc, "<standard_deviation>1.25", "<standard_deviation>-1"), summary.ErrRange, "distributions/fitness/standard_deviation"},
		{"missing std", cut(validDoc, "<standard_deviation>", "</standard_deviation>"), summary.ErrMissingField, "distributions/fitness/standard_deviation"},
		{"missing best", cut(validDoc, "<best>", "</best>"), summary.ErrMissingField, "best/fitness"},
		{"best fitness nan", replace(validDoc, "<fitness>5</fitness>\n      <accuracy>0.75</accuracy>\n      <run>", "<fitness>NaN</fitness>\n      <accuracy>0.75</accuracy>\n      <run>"), summary.ErrRange, "best/fitness"},
		{"best run too large", replace(validDoc, "<run>3</run>\n      <code>", "<run>10</run>\n      <code>"), summary.ErrRange, "best/run"},
		{"best run negative", replace(validDoc, "<run>3</run>\n      <code>", "<run>-1</run>\n      <code>"), summary.ErrRange, "best/run"},
		{"empty code", replace(validDoc, "<code>  (+ X1 X2)  </code>", "<code> </code>"), summary.ErrMissingField, "best/code"},
		{"missing solutions", cut(validDoc, "<solutions>", "</solutions>"), summary.ErrMissingField, "solutions"},
		{"empty solution entry", replace(validDoc, "<run>7</run>", "<run></run>"), summary.ErrMissingField, "solutions/run[1]"},
		{"solution not int", replace(validDoc, "<run>7</run>", "<run>seven</run>"), summary.ErrFormat, "solutions/run[1]"},
		{"solution out of range", replace(validDoc, "<run>7</run>", "<run>10</run>"), summary.ErrRange, "solutions/run[1]"},
		{"negative solution", replace(validDoc, "<run>7</run>", "<run>-7</run>"), summary.ErrRange, "solutions/run[1]"},
		{"duplicate solution", replace(validDoc, "<run>1</run>\n    </solutions>", "<run>3</run>\n    </solutions>"), summary.ErrRange, "solutions/run[2]"},
		{"missing percentile", replace(validDoc, ` percentile="20"`, ""), summary.ErrMissingField, "elite@percentile"},
		{"blank percentile", replace(validDoc, `percentile="20"`, `percentile=" "`), summary.ErrMissingField, "elite@percentile"},
		{"percentile not number", replace(validDoc, `percentile="20"`, `percentile="top"`), summary.ErrFormat, "elite@percentile"},
		{"percentile above 100", replace(validDoc, `percentile="20"`, `percentile="150"`), summary.ErrRange, "elite@percentile"},
		{"negative percentile", replace(validDoc, `percentile="20"`, `percentile="-0.1"`), summary.ErrRange, "elite@percentile"},
		{"missing elite id", replace(validDoc, `<run id="9" />`, `<run />`), summary.ErrMissingField, "elite/run[2]@id"},
		{"elite id not int", replace(validDoc, `<run id="9" />`, `<run id="nine" />`), summary.ErrFormat, "elite/run[2]@id"},
		{"elite id out of range", replace(validDoc, `<run id="9" />`, `<run id="10" />`), summary.ErrRange, "elite/run[2]@id"},
		{"duplicate elite id", replace(validDoc, `<run id="9" />`, `<run id="3" />`), summary.ErrRange, "elite/run[2]@id"},
		{"elite fitness not float", replace(validDoc, `<run id="7"><fitness>4</fitness>`, `<run id="7"><fitness>four</fitness>`), summary.ErrFormat, "elite/run[1]/fitness"},
		{"elite fitness infinite", replace(validDoc, `<run id="7"><fitness>4</fitness>`, `<run id="7"><fitness>-inf</fitness>`), summary.ErrRange, "elite/run[1]/fitness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := summary.Parse([]byte(tt.doc), "bad.xml")
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.kind)

			var se *summary.Error
			require.True(t, errors.As(err, &se), "error %T is not a *summary.Error", err)
			assert.Equal(t, "bad.xml", se.File)
			assert.Equal(t, tt.path, se.Path)
			assert.True(t, strings.HasPrefix(err.Error(), "bad.xml: "), "message %q does not name the file", err)
		})
	}
}

func TestParseMessages(t *testing.T) {
	_, err := summary.Parse([]byte(cut(validDoc, "<solutions>", "</solutions>")), "a.xml")
	require.Error(t, err)
	assert.Equal(t, "a.xml: missing required node 'solutions'", err.Error())

	_, err = summary.Parse([]byte(replace(validDoc, "<success_rate>0.3", "<success_rate>1.5")), "a.xml")
	require.Error(t, err)
	assert.Equal(t, "a.xml: success_rate out of range: 1.5", err.Error())
}

func TestParsePercentile(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"0.05", 0.05},
		{"5", 0.05},
		{"5%", 0.05},
		{" 12.5 ", 0.125},
		{"100", 1},
		{"1", 1},
		{"0", 0},
		{"0.5%", 0.005},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := summary.ParsePercentile(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-15)
		})
	}

	for _, bad := range []string{"", "abc", "101", "-1", "nan", "200%"} {
		_, err := summary.ParsePercentile(bad)
		assert.Error(t, err, "ParsePercentile(%q)", bad)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.xml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o644))

	r, err := summary.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.File)

	_, err = summary.ParseFile(filepath.Join(dir, "missing.xml"))
	assert.ErrorIs(t, err, summary.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// cut removes the first span starting at from and ending after to.
func cut(doc, from, to string) string {
	i := strings.Index(doc, from)
	j := strings.Index(doc[i:], to)
	return doc[:i] + doc[i+j+len(to):]
}

func replace(doc, old, new string) string {
	if !strings.Contains(doc, old) {
		panic("fixture does not contain " + old)
	}
	return strings.Replace(doc, old, new, 1)
}
