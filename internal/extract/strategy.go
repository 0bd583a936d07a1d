package extract

import (
	"regexp"
	"strings"
)

// Strategy identifies the recognizer that produced a Candidate.
type Strategy string

const (
	StrategyCall   Strategy = "call"
	StrategyFenced Strategy = "fenced"
	StrategyHeader Strategy = "header"
)

// Candidate is one file declaration found in generated text, before
// deduplication and protection checks.
type Candidate struct {
	Path     string
	Content  string
	Strategy Strategy
}

// Recognizer scans the whole text for file declarations of one shape.
// Recognizers are pure and independent: none sees what another found.
type Recognizer struct {
	Strategy Strategy
	Find     func(text string) []Candidate
}

// DefaultRecognizers returns the recognizers in pool order.
func DefaultRecognizers() []Recognizer {
	return []Recognizer{
		{Strategy: StrategyCall, Find: FindCalls},
		{Strategy: StrategyFenced, Find: FindFencedBlocks},
		{Strategy: StrategyHeader, Find: FindHeaderSections},
	}
}

// --------------------------------------------------------------------------
// call: write_file(file_path="p", content="""...""")
// --------------------------------------------------------------------------

// Alternatives are tried leftmost-first, so a triple-quoted payload is
// consumed whole and never re-read as a single-quoted one.
var writeFileCall = regexp.MustCompile(
	`(?s)write_file\s*\(\s*(?:(?:file_)?path\s*=\s*)?["']([^"'\n]+)["']\s*,\s*(?:content\s*=\s*)?` +
		`(?:"""(.*?)"""|'''(.*?)'''|"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')\s*\)`)

// FindCalls recognizes explicit write_file(...) calls.
func FindCalls(text string) []Candidate {
	var out []Candidate
	for _, m := range writeFileCall.FindAllStringSubmatchIndex(text, -1) {
		p := text[m[2]:m[3]]
		var payload string
		for g := 2; g <= 5; g++ {
			if m[2*g] >= 0 {
				payload = text[m[2*g]:m[2*g+1]]
				break
			}
		}
		out = append(out, Candidate{
			Path:     p,
			Content:  CleanPayload(payload),
			Strategy: StrategyCall,
		})
	}
	return out
}

// CleanPayload trims whitespace, unescapes quotes and strips a fence line
// that leaked into a call payload.
func CleanPayload(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)

	lines := strings.Split(s, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}

// --------------------------------------------------------------------------
// fenced: a code block whose first line is a comment naming the file
// --------------------------------------------------------------------------

var pathComment = regexp.MustCompile(
	`^\s*(?:#|//|--|;|/\*|<!--)\s*(?:(?i:file(?:name)?|path)\s*:\s*)?([^\s` + "`" + `*]*\.[A-Za-z][A-Za-z0-9]*)\s*(?:\*/|-->)?\s*$`)

// FindFencedBlocks recognizes fenced blocks whose first line is a path comment.
func FindFencedBlocks(text string) []Candidate {
	lines := splitLines(text)
	var out []Candidate
	for i := 0; i < len(lines); i++ {
		if !isFence(lines[i]) {
			continue
		}
		end := closingFence(lines, i+1)
		if end < 0 {
			break
		}
		if i+1 < end {
			if m := pathComment.FindStringSubmatch(lines[i+1]); m != nil {
				out = append(out, Candidate{
					Path:     m[1],
					Content:  strings.TrimSpace(strings.Join(lines[i+2:end], "\n")),
					Strategy: StrategyFenced,
				})
			}
		}
		i = end
	}
	return out
}

// --------------------------------------------------------------------------
// header: "#### File: `path`" followed eventually by a fenced block
// --------------------------------------------------------------------------

var headerPath = regexp.MustCompile("[`(]([^`()\\s]*\\.[A-Za-z][A-Za-z0-9]*)[`)]")

// FindHeaderSections recognizes heading lines (level 3 or deeper) naming a
// path, paired with the next fenced block after them.
func FindHeaderSections(text string) []Candidate {
	lines := splitLines(text)
	var out []Candidate
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "###") {
			i++
			continue
		}
		m := headerPath.FindStringSubmatch(line)
		if m == nil {
			i++
			continue
		}

		start := -1
		for j := i + 1; j < len(lines); j++ {
			if isFence(lines[j]) {
				start = j
				break
			}
		}
		if start < 0 {
			i++
			continue
		}
		end := closingFence(lines, start+1)
		if end < 0 {
			break
		}
		out = append(out, Candidate{
			Path:     m[1],
			Content:  strings.TrimSpace(strings.Join(lines[start+1:end], "\n")),
			Strategy: StrategyHeader,
		})
		i = end
	}
	return out
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

// closingFence returns the index of the first bare ``` line at or after from,
// or -1.
func closingFence(lines []string, from int) int {
	for k := from; k < len(lines); k++ {
		if strings.TrimSpace(lines[k]) == "```" {
			return k
		}
	}
	return -1
}
