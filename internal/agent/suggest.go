package agent

import (
	"regexp"
	"sort"
	"strings"
)

const sourceExt = `(?:py|js|ts|tsx|jsx|java|cpp|c|h|go|rs|rb)`

var mentionedFile = []*regexp.Regexp{
	regexp.MustCompile("`([A-Za-z0-9_/.-]+\\." + sourceExt + ")`"),
	regexp.MustCompile(`\(([A-Za-z0-9_/.-]+\.` + sourceExt + `)\)`),
	regexp.MustCompile(`(?:Create|create|in|file:?)\s+([A-Za-z0-9_/.-]+\.` + sourceExt + `)\b`),
}

// MentionedFiles returns the distinct source paths a specification names,
// sorted.
func MentionedFiles(spec string) []string {
	seen := map[string]bool{}
	var files []string
	for _, re := range mentionedFile {
		for _, m := range re.FindAllStringSubmatch(spec, -1) {
			f := strings.TrimSpace(m[1])
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files
}

// keywordFiles maps request keywords to the files they suggest.
var keywordFiles = []struct {
	words []string
	files []string
}{
	{[]string{"database", "model", "schema", "table", "db"}, []string{"src/models/database.py", "src/models/__init__.py"}},
	{[]string{"api", "endpoint", "route", "rest", "http"}, []string{"src/api/routes.py", "src/api/__init__.py"}},
	{[]string{"algorithm", "pricing", "calculation", "compute"}, []string{"src/services/algorithm.py", "src/services/__init__.py"}},
	{[]string{"auth", "login", "token", "jwt", "session"}, []string{"src/auth/authentication.py", "src/auth/__init__.py"}},
	{[]string{"sync", "integration", "external", "fetch"}, []string{"src/services/sync.py"}},
}

// SuggestFiles proposes a file layout for the coder prompt. Files the
// specification names win; otherwise a default layout is picked by keyword
// sniffing. The result is a hint and may be entirely wrong.
func SuggestFiles(spec string) []string {
	if files := MentionedFiles(spec); len(files) > 0 {
		return files
	}

	lower := strings.ToLower(spec)
	files := []string{"src/main.py", "src/config.py", "README.md"}
	for _, kf := range keywordFiles {
		if containsAny(lower, kf.words...) {
			files = append(files, kf.files...)
		}
	}
	return append(files,
		"src/utils/helpers.py",
		"src/utils/__init__.py",
		"src/constants.py",
	)
}
