package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/acan/internal/orchestrator"
)

// GenerateMermaid produces a Mermaid flowchart of a workflow. Steps are
// chained in declaration order. When report is non-nil, each step is
// classed by its outcome and the files it wrote hang off it.
func GenerateMermaid(wf orchestrator.Workflow, report *orchestrator.RunReport) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("  classDef pending fill:#eee,stroke:#999\n")
	sb.WriteString("  classDef completed fill:#d4edda,stroke:#28a745\n")
	sb.WriteString("  classDef skipped fill:#fff3cd,stroke:#ffc107\n")
	sb.WriteString("  classDef failed fill:#f8d7da,stroke:#dc3545\n")

	outcomes := map[string]orchestrator.StepOutcome{}
	if report != nil {
		for _, s := range report.Steps {
			outcomes[s.Name] = s
		}
	}

	classes := map[string][]string{}
	for i, step := range wf.Steps {
		id := fmt.Sprintf("S%d", i)
		sb.WriteString(fmt.Sprintf("  %s[\"%s<br/><i>%s</i>\"]\n", id, escape(step.Name), step.Role))
		if i > 0 {
			sb.WriteString(fmt.Sprintf("  S%d --> %s\n", i-1, id))
		}

		class := "pending"
		if o, ok := outcomes[step.Name]; ok {
			class = string(o.Status)
			files := append(append([]string(nil), o.Created...), o.Modified...)
			sort.Strings(files)
			for j, f := range files {
				fid := fmt.Sprintf("F%d_%d", i, j)
				sb.WriteString(fmt.Sprintf("  %s -.-> %s[(\"%s\")]\n", id, fid, escape(shortPath(f))))
			}
		}
		classes[class] = append(classes[class], id)
	}

	for _, c := range []string{"pending", "completed", "skipped", "failed"} {
		if ids := classes[c]; len(ids) > 0 {
			sb.WriteString(fmt.Sprintf("  class %s %s\n", strings.Join(ids, ","), c))
		}
	}
	return sb.String()
}

// shortPath keeps the last two path segments.
func shortPath(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) <= 2 {
		return p
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
