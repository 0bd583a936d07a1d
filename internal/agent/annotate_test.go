package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `# Todo API

## Overview
A small service.

## Functional Requirements
1. FR1: create todos

## Architecture
Layered.

## Implementation Plan
Phase 1.

## Acceptance Criteria
- todos persist

## Clarifying Questions
1. Should todos expire?
- Is auth required?

## Dependencies and Risks
- none
`

func TestQuestions(t *testing.T) {
	assert.Equal(t, []string{"Should todos expire?", "Is auth required?"}, Questions(sampleSpec))
	assert.Empty(t, Questions("no questions here"))
}

func TestConfidence(t *testing.T) {
	// Five sections present, two question marks.
	assert.InDelta(t, 0.96, Confidence(sampleSpec), 1e-9)

	// Nothing present clamps to zero.
	assert.Equal(t, 0.0, Confidence("TODO TODO ???"))

	// TODO penalty is capped at 0.3.
	spec := "Overview Requirements Architecture Implementation Plan Acceptance Criteria" +
		" TODO TODO TODO TODO TODO TODO TODO TODO"
	assert.InDelta(t, 0.7, Confidence(spec), 1e-9)
}

func TestArchitectureAnnotations(t *testing.T) {
	text := `## Components
- API gateway
- Todo service

## Technology Stack
- Backend: Go
- **Database**: PostgreSQL

## Design Decisions
* Use REST over gRPC
`
	assert.Equal(t, []string{"API gateway", "Todo service"}, Components(text))
	assert.Equal(t, map[string]string{"Backend": "Go", "Database": "PostgreSQL"}, TechnologyStack(text))
	assert.Equal(t, []string{"Use REST over gRPC"}, DesignDecisions(text))
}

func TestComponents_Limit(t *testing.T) {
	text := "Components\n"
	for i := 0; i < 15; i++ {
		text += "- part\n"
	}
	assert.Len(t, Components(text), 10)
}

func TestReviewAnnotations(t *testing.T) {
	review := `## Summary
Decent work.

### High Priority
1. SQL injection in the search handler
2. short

### Low Priority
- Variable names in utils are inconsistent

## Suggestions
- Add pagination
- Add structured logging

Overall score: 7 / 10
`
	issues := Issues(review)
	require.Len(t, issues, 2)
	assert.Equal(t, Issue{Priority: "high", Description: "SQL injection in the search handler"}, issues[0])
	assert.Equal(t, "low", issues[1].Priority)

	assert.Equal(t, []string{"Add pagination", "Add structured logging"}, Suggestions(review))

	score, ok := ReviewScore(review)
	require.True(t, ok)
	assert.Equal(t, 7, score)

	_, ok = ReviewScore("rated 7/10 overall")
	assert.False(t, ok, "a ratio without the word score is ignored")

	a := annotateReview(review)
	assert.Equal(t, 7, a["score"])
	assert.Equal(t, review, a["review_summary"])
}

func TestTestAnnotations(t *testing.T) {
	text := `## Test Files
- tests/test_api.py
- tests/test_models.py

## Coverage
Covers handlers; storage errors untested.
`
	assert.Equal(t, []string{"tests/test_api.py", "tests/test_models.py"}, TestFiles(text))
	assert.Equal(t, "## Coverage\nCovers handlers; storage errors untested.", CoverageNotes(text))
	assert.Equal(t, "No coverage notes provided", CoverageNotes("nothing"))
}

func TestTestingNotes(t *testing.T) {
	text := "#### File: `a.py`\n```python\nx = 1\n```\n\nTesting: run pytest.\nCheck edge cases.\n## Next"
	assert.Equal(t, "Testing: run pytest.\nCheck edge cases.", TestingNotes(text))
}
