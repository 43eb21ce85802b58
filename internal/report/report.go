// Package report assembles the markdown executive summaries that each
// case pipeline writes alongside its exports.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Summary accumulates the sections of an executive summary document.
type Summary struct {
	title       string
	generatedAt time.Time

	headlines   []string
	actions     []string
	watchlist   []string
	scenarios   []string
	methods     []string
	limitations []string
}

// NewSummary creates an executive summary with the given title.
func NewSummary(title string) *Summary {
	return &Summary{title: title, generatedAt: time.Now().UTC()}
}

// WithGeneratedAt overrides the generation timestamp, used in tests.
func (s *Summary) WithGeneratedAt(t time.Time) *Summary {
	s.generatedAt = t
	return s
}

// Headline adds a finding to the Headline Findings section.
func (s *Summary) Headline(format string, args ...any) {
	s.headlines = append(s.headlines, fmt.Sprintf(format, args...))
}

// Action adds an item to the Recommended Actions section.
func (s *Summary) Action(format string, args ...any) {
	s.actions = append(s.actions, fmt.Sprintf(format, args...))
}

// Watch adds an item to the Watchlist section.
func (s *Summary) Watch(format string, args ...any) {
	s.watchlist = append(s.watchlist, fmt.Sprintf(format, args...))
}

// Scenario adds an insight to the Scenario Insights section.
func (s *Summary) Scenario(format string, args ...any) {
	s.scenarios = append(s.scenarios, fmt.Sprintf(format, args...))
}

// Method documents an assumption or method used by the analysis.
func (s *Summary) Method(format string, args ...any) {
	s.methods = append(s.methods, fmt.Sprintf(format, args...))
}

// Limitation documents a limitation or suggested next step.
func (s *Summary) Limitation(format string, args ...any) {
	s.limitations = append(s.limitations, fmt.Sprintf(format, args...))
}

// Render produces the markdown document. Empty sections are omitted.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.title)
	fmt.Fprintf(&b, "_Generated %s_\n\n", s.generatedAt.Format("2006-01-02 15:04 UTC"))

	writeSection(&b, "Headline Findings", s.headlines)
	writeSection(&b, "Recommended Actions", s.actions)
	writeSection(&b, "Watchlist", s.watchlist)
	writeSection(&b, "Scenario Insights", s.scenarios)
	writeSection(&b, "Methods & Assumptions", s.methods)
	writeSection(&b, "Limitations & Next Steps", s.limitations)

	return b.String()
}

func writeSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// FormatAmount formats a monetary or quantity value with thousands
// separators and two decimals. NaN renders as N/A.
func FormatAmount(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}

	neg := v < 0
	if neg {
		v = -v
	}

	whole := fmt.Sprintf("%.2f", v)
	dot := strings.Index(whole, ".")
	intPart, fracPart := whole[:dot], whole[dot:]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + fracPart
	if neg {
		return "-" + out
	}
	return out
}

// FormatPercent formats a fraction as a percentage with one decimal.
// NaN renders as N/A.
func FormatPercent(fraction float64) string {
	if math.IsNaN(fraction) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// FormatCount formats an integer count with thousands separators.
func FormatCount(n int) string {
	s := FormatAmount(float64(n))
	return strings.TrimSuffix(s, ".00")
}
