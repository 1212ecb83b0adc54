// Package report renders calculation results for people: plain text for the
// CLI, markdown for the forms, and HTML converted from that markdown.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"abstat/domain/experiment"
)

// Line is one labelled value of a report
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report is an ordered set of lines under a title
type Report struct {
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// Significance builds the z-test report
func Significance(params experiment.TestParameters, test, control experiment.GroupSummary, result experiment.SignificanceResult) Report {
	r := Report{Title: "Results:"}
	r.add("Test Type", params.TestKind.Label()+" Test")
	r.add("Tail Type", params.TailKind.Label())
	if params.TailKind == experiment.TailOne && params.OneTailedMode == experiment.Directional {
		r.add("One-Tailed Mode", "Directional (test > control)")
	}
	r.add("Test Group Value", formatFloat(test.Value))
	r.add("Control Group Value", formatFloat(control.Value))
	if params.TestKind == experiment.TestKindMean {
		r.add("Test Group Std Dev", formatFloat(test.StdDev))
		r.add("Control Group Std Dev", formatFloat(control.StdDev))
	}
	r.add("Test Group Size", strconv.Itoa(test.SampleSize))
	r.add("Control Group Size", strconv.Itoa(control.SampleSize))
	r.add("Confidence Level", formatFloat(params.ConfidenceLevel))
	r.add("Z-Score", formatFloat(result.ZScore))
	r.add("P-Value", FormatPValue(result.PValue))
	r.add("Significant", YesNo(result.IsSignificant))
	return r
}

// SampleSize builds the power-analysis report
func SampleSize(params experiment.SampleSizeParameters, result experiment.SampleSizeResult) Report {
	r := Report{Title: "Sample Size Calculation Report"}
	r.add("Experiment Type", params.TestKind.Label()+" Difference")
	r.add("Test Type", params.TailKind.Label())
	if params.TestKind == experiment.TestKindProportion {
		r.add("Baseline Proportion", formatFloat(params.Baseline))
		r.add("Desired Proportion", formatFloat(params.Target))
	} else {
		r.add("Desired Mean Difference", formatFloat(params.Delta))
		r.add("Standard Deviation", formatFloat(params.Sigma))
	}
	r.add("Significance Level (Alpha)", formatFloat(params.Alpha))
	r.add("Statistical Power", formatFloat(params.Power))
	r.add("Control Group Ratio", formatFloat(params.SplitRatio))
	r.add("Experimental Group Ratio", formatFloat(1-params.SplitRatio))
	r.add("Total Sample Size Required", strconv.Itoa(result.TotalSize))
	r.add("Control Group Sample Size", strconv.Itoa(result.ControlSize))
	r.add("Experimental Group Sample Size", strconv.Itoa(result.TestSize))
	return r
}

// Text renders the report the way the command-line tools print it
func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.Title)
	b.WriteString(strings.Repeat("-", 28) + "\n")
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s: %s\n", l.Label, l.Value)
	}
	return b.String()
}

// Markdown renders the report with bold labels, one line per paragraph
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", strings.TrimSuffix(r.Title, ":"))
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "**%s:** %s\n\n", l.Label, escapeMarkdown(l.Value))
	}
	return b.String()
}

// HTML converts the markdown rendering to an HTML fragment
func (r Report) HTML() string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(r.Markdown()))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.Render(doc, renderer))
}

// FormatPValue prints a p-value to 4 decimal places
func FormatPValue(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}

// YesNo renders a significance decision
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (r *Report) add(label, value string) {
	r.Lines = append(r.Lines, Line{Label: label, Value: value})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var markdownEscaper = strings.NewReplacer(`*`, `\*`, `_`, `\_`, "`", "\\`", `<`, `&lt;`, `>`, `&gt;`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
