package agent

import (
	"fmt"
	"sort"
	"strings"
)

// Context keys read and written by the roles.
const (
	KeyUserRequirement = "user_requirement"
	KeySpecification   = "specification"
	KeyArchitecture    = "architecture"
	KeyCode            = "code"
	KeySuggestedFiles  = "suggested_files"
)

// Inputs carries the context values a role's prompt is built from.
type Inputs map[string]string

// RoleSpec is one row of the dispatch table.
type RoleSpec struct {
	Role  Role
	Title string

	// Requires lists context keys that must be present before the role runs.
	Requires []string

	// Extracts marks the role whose output is materialized as files.
	Extracts bool

	// Prompt builds the user prompt from context values.
	Prompt func(in Inputs) string

	// Annotate scrapes best-effort metadata from the generated text.
	Annotate func(text string) Annotations
}

var roleTable = map[Role]RoleSpec{
	RoleProjectManager: {
		Role:     RoleProjectManager,
		Title:    "Requirements Analyst and Specification Specialist",
		Requires: []string{KeyUserRequirement},
		Prompt:   projectManagerPrompt,
		Annotate: annotateSpecification,
	},
	RoleArchitect: {
		Role:     RoleArchitect,
		Title:    "System Architecture and Technical Design Expert",
		Requires: []string{KeySpecification},
		Prompt:   architectPrompt,
		Annotate: annotateArchitecture,
	},
	RoleCoder: {
		Role:     RoleCoder,
		Title:    "Senior Software Engineer",
		Requires: []string{KeySpecification},
		Extracts: true,
		Prompt:   coderPrompt,
		Annotate: annotateImplementation,
	},
	RoleTester: {
		Role:     RoleTester,
		Title:    "Quality Assurance and Testing Specialist",
		Requires: []string{KeySpecification, KeyCode},
		Prompt:   testerPrompt,
		Annotate: annotateTests,
	},
	RoleReviewer: {
		Role:     RoleReviewer,
		Title:    "Code Quality and Review Specialist",
		Requires: []string{KeySpecification, KeyCode},
		Prompt:   reviewerPrompt,
		Annotate: annotateReview,
	},
}

// Lookup returns the dispatch entry for role.
func Lookup(role Role) (RoleSpec, bool) {
	spec, ok := roleTable[role]
	return spec, ok
}

// Roles returns every known role in sorted order.
func Roles() []Role {
	out := make([]Role, 0, len(roleTable))
	for r := range roleTable {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidateRole returns an error naming the known roles when role is unknown.
func ValidateRole(role Role) error {
	if _, ok := roleTable[role]; ok {
		return nil
	}
	names := make([]string, 0, len(roleTable))
	for _, r := range Roles() {
		names = append(names, string(r))
	}
	return fmt.Errorf("unknown role %q (known: %s)", role, strings.Join(names, ", "))
}

// --------------------------------------------------------------------------
// Prompts
// --------------------------------------------------------------------------

func projectManagerPrompt(in Inputs) string {
	return fmt.Sprintf(`Analyze the following user requirement and create a detailed specification document.

Requirement: %s

Your specification must be Markdown and include these sections:
1. Overview and Purpose
2. Functional Requirements (numbered FR1, FR2, ...)
3. Non-Functional Requirements (NFR1, NFR2, ...)
4. Architecture Overview
5. Implementation Plan (phases)
6. Acceptance Criteria (testable conditions)
7. Clarifying Questions
8. Dependencies and Risks
`, in[KeyUserRequirement])
}

func architectPrompt(in Inputs) string {
	return fmt.Sprintf(`Design a system architecture for this specification.

SPECIFICATION:
%s

Cover:
1. System overview and the main architectural pattern
2. Component breakdown as a bulleted list under a "Components" heading
3. Technology stack as "Layer: Technology" lines under a "Technology Stack" heading
4. Data flow between components
5. Key design decisions and trade-offs as a bulleted list
6. Security and deployment considerations
`, in[KeySpecification])
}

func coderPrompt(in Inputs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== IMPLEMENTATION TASK ===\n\nSpecification to implement:\n%s\n", in[KeySpecification])
	if arch := in[KeyArchitecture]; arch != "" {
		fmt.Fprintf(&b, "\nArchitecture to follow:\n%s\n", arch)
	}
	if files := in[KeySuggestedFiles]; files != "" {
		fmt.Fprintf(&b, "\nSuggested files (adjust as needed):\n%s\n", files)
	}
	b.WriteString(`
=== OUTPUT FORMAT ===
Output EVERY file in exactly this form:

#### File: ` + "`path/to/file.ext`" + `
` + "```" + `language
complete file content
` + "```" + `

Use paths relative to the project root. Write complete, working code with
all imports. Do not describe the files, output them.
`)
	return b.String()
}

func testerPrompt(in Inputs) string {
	return fmt.Sprintf(`Write a test suite for the implementation below.

SPECIFICATION:
%s

IMPLEMENTATION:
%s

List the test files you create under a "Test Files" heading, then output
each file as "#### File: `+"`path`"+`" followed by a fenced code block. Finish
with a "Coverage" section describing what is and is not covered.
`, in[KeySpecification], in[KeyCode])
}

func reviewerPrompt(in Inputs) string {
	return fmt.Sprintf(`Review the implementation below against its specification.

SPECIFICATION:
%s

IMPLEMENTATION:
%s

Structure the review as:
- Summary
- High Priority issues, Medium Priority issues, Low Priority issues (numbered lists)
- Suggestions for improvement (bulleted list)
- A final line "Score: N/10"
`, in[KeySpecification], in[KeyCode])
}
