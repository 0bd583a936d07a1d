package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// Annotations is best-effort metadata scraped from generated prose. Any key
// may be missing or wrong; nothing downstream branches on it.
type Annotations map[string]any

// Issue is one review finding.
type Issue struct {
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

func annotateSpecification(text string) Annotations {
	return Annotations{
		"questions":  Questions(text),
		"confidence": Confidence(text),
	}
}

func annotateArchitecture(text string) Annotations {
	return Annotations{
		"components":       Components(text),
		"technology_stack": TechnologyStack(text),
		"design_decisions": DesignDecisions(text),
	}
}

func annotateImplementation(text string) Annotations {
	return Annotations{"testing_notes": TestingNotes(text)}
}

func annotateTests(text string) Annotations {
	return Annotations{
		"test_files":     TestFiles(text),
		"coverage_notes": CoverageNotes(text),
	}
}

func annotateReview(text string) Annotations {
	a := Annotations{
		"review_summary": text,
		"issues":         Issues(text),
		"suggestions":    Suggestions(text),
	}
	if score, ok := ReviewScore(text); ok {
		a["score"] = score
	}
	return a
}

// --------------------------------------------------------------------------
// Section scraping
// --------------------------------------------------------------------------

// listItem strips a bullet or "N." prefix. ok is false for non-list lines.
func listItem(line string, numbered bool) (string, bool) {
	s := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "*"):
		return strings.TrimSpace(strings.TrimLeft(s, "-* ")), true
	case numbered && len(s) > 1 && s[0] >= '0' && s[0] <= '9':
		i := strings.IndexByte(s, '.')
		if i < 0 {
			return "", false
		}
		if _, err := strconv.Atoi(s[:i]); err != nil {
			return "", false
		}
		return strings.TrimSpace(strings.TrimLeft(s[i+1:], "-* ")), true
	}
	return "", false
}

// sectionItems collects list items after the first line for which start
// returns true, stopping at the next "##" heading. limit <= 0 means no limit.
func sectionItems(text string, start func(lower string) bool, numbered bool, limit int) []string {
	items := []string{}
	in := false
	for _, line := range strings.Split(text, "\n") {
		if !in {
			in = start(strings.ToLower(line))
			continue
		}
		if strings.HasPrefix(line, "##") {
			break
		}
		if item, ok := listItem(line, numbered); ok && item != "" {
			items = append(items, item)
			if limit > 0 && len(items) == limit {
				break
			}
		}
	}
	return items
}

// sectionText returns the lines from the first line matching start up to
// the next heading line.
func sectionText(text string, start func(lower string) bool) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) == 0 {
			if start(strings.ToLower(line)) {
				out = append(out, line)
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			break
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Questions returns the items of an "Open Questions" or "Clarifying
// Questions" section.
func Questions(spec string) []string {
	return sectionItems(spec, func(l string) bool {
		return containsAny(l, "open questions", "clarifying questions")
	}, true, 0)
}

var confidenceSections = []string{
	"Overview",
	"Requirements",
	"Architecture",
	"Implementation Plan",
	"Acceptance Criteria",
}

// Confidence scores a specification by section coverage, penalized for
// TODO markers and question marks. The result is in [0, 1].
func Confidence(spec string) float64 {
	present := 0
	for _, s := range confidenceSections {
		if strings.Contains(spec, s) {
			present++
		}
	}
	c := float64(present) / float64(len(confidenceSections))
	c -= min(float64(strings.Count(spec, "TODO"))*0.05, 0.3)
	c -= min(float64(strings.Count(spec, "?"))*0.02, 0.2)
	return max(0, min(1, c))
}

// Components returns up to ten items following a components heading.
func Components(text string) []string {
	return sectionItems(text, func(l string) bool {
		return containsAny(l, "component", "module")
	}, false, 10)
}

// DesignDecisions returns up to five items following a decisions heading.
func DesignDecisions(text string) []string {
	return sectionItems(text, func(l string) bool {
		return containsAny(l, "decision", "trade-off")
	}, false, 5)
}

// TechnologyStack returns "Layer: Technology" pairs from the technology
// section.
func TechnologyStack(text string) map[string]string {
	stack := map[string]string{}
	in := false
	for _, line := range strings.Split(text, "\n") {
		if !in {
			l := strings.ToLower(line)
			in = containsAny(l, "technology", "tech stack")
			continue
		}
		if strings.HasPrefix(line, "##") {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.Trim(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(key), "-* ")), "*")
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			stack[key] = value
		}
	}
	return stack
}

// TestingNotes returns the first testing section of an implementation.
func TestingNotes(text string) string {
	return sectionText(text, func(l string) bool { return strings.Contains(l, "test") })
}

// CoverageNotes returns the coverage section of a test report.
func CoverageNotes(text string) string {
	notes := sectionText(text, func(l string) bool {
		return containsAny(l, "coverage", "test summary")
	})
	if notes == "" {
		return "No coverage notes provided"
	}
	return notes
}

var testFilePath = regexp.MustCompile(`[\w./-]*test[\w./-]*\.[A-Za-z]{1,5}\b`)

// TestFiles returns the distinct test-looking paths mentioned in text.
func TestFiles(text string) []string {
	files := []string{}
	seen := map[string]bool{}
	for _, m := range testFilePath.FindAllString(text, -1) {
		m = strings.Trim(m, "./")
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		files = append(files, m)
	}
	return files
}

// Issues returns findings grouped under High/Medium/Low priority markers.
func Issues(review string) []Issue {
	issues := []Issue{}
	priority := ""
	for _, line := range strings.Split(review, "\n") {
		l := strings.ToLower(line)
		switch {
		case strings.Contains(l, "high priority") || strings.Contains(line, "🔴"):
			priority = "high"
			continue
		case strings.Contains(l, "medium priority") || strings.Contains(line, "🟡"):
			priority = "medium"
			continue
		case strings.Contains(l, "low priority") || strings.Contains(line, "🟢"):
			priority = "low"
			continue
		case strings.HasPrefix(strings.TrimSpace(line), "#"):
			priority = ""
			continue
		}
		if priority == "" {
			continue
		}
		if item, ok := listItem(line, true); ok && len(item) > 10 {
			issues = append(issues, Issue{Priority: priority, Description: item})
		}
	}
	return issues
}

// Suggestions returns items of the suggestions or improvements section.
func Suggestions(review string) []string {
	return sectionItems(review, func(l string) bool {
		return containsAny(l, "suggestion", "improvement")
	}, true, 0)
}

var scorePattern = regexp.MustCompile(`(\d+)\s*/\s*10`)

// ReviewScore finds "N/10" on a line mentioning a score.
func ReviewScore(review string) (int, bool) {
	for _, line := range strings.Split(review, "\n") {
		if !strings.Contains(strings.ToLower(line), "score") {
			continue
		}
		if m := scorePattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
