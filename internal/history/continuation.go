package history

import (
	"fmt"
	"strings"
)

// ProjectState is what is known about a project when it is continued.
type ProjectState struct {
	Project        Project
	Specifications int
	SourceFiles    int
	TestFiles      int
	Runs           []Run
}

// ContinuationPrompt builds the workflow input for another iteration of a
// project driven by user feedback.
func ContinuationPrompt(st ProjectState, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONTINUATION TASK - Project: %s\n\n", st.Project.Name)
	if st.Project.Description != "" {
		fmt.Fprintf(&b, "PROJECT DESCRIPTION:\n%s\n\n", st.Project.Description)
	}
	fmt.Fprintf(&b, "FEEDBACK FROM USER:\n%s\n\n", strings.TrimSpace(feedback))

	b.WriteString("EXISTING PROJECT CONTEXT:\n")
	fmt.Fprintf(&b, "- Specifications created: %d\n", st.Specifications)
	fmt.Fprintf(&b, "- Source files: %d\n", st.SourceFiles)
	fmt.Fprintf(&b, "- Test files: %d\n", st.TestFiles)
	fmt.Fprintf(&b, "- Previous iterations: %d\n", len(st.Runs))

	if n := len(st.Runs); n > 0 {
		last := st.Runs[n-1]
		fmt.Fprintf(&b, "\nLAST ITERATION (%s, workflow %s):\n", last.ID, last.Workflow)
		if last.Feedback != "" {
			fmt.Fprintf(&b, "- Feedback: %s\n", last.Feedback)
		}
		for _, f := range last.Files {
			fmt.Fprintf(&b, "- %s %s\n", f.Kind, f.Path)
		}
	}

	fmt.Fprintf(&b, `
YOUR TASK:
1. Review the feedback above
2. Address the user's concerns
3. Improve or fix the implementation
4. Create or update files as needed

Output every file you create or change in full.
Work in the existing project directory: %s
`, st.Project.Path)
	return b.String()
}
