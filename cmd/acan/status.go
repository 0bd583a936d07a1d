package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/acan/internal/a2a"
	"github.com/dusk-indust/acan/internal/agent"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show agents, remote endpoints and workflows",
		Long: `Show every configured agent and whether it is ready, probe the A2A
endpoints of remote agents concurrently, and list the workflows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Automated Coding Agent Network"))
			fmt.Fprintln(out, dimStyle.Render("project root: "+a.Root))
			fmt.Fprintln(out)

			var rows [][]string
			var endpoints []string
			owner := map[string]string{}
			for _, spec := range a.Config.Agents {
				state := "disabled"
				if e, ok := a.Agents.Lookup(spec.Role); ok && e.Spec.Name == spec.Name {
					state = "ready"
				}
				rows = append(rows, []string{spec.Name, string(spec.Role), orDash(spec.Model), statusStyle(state).Render(state)})

				if spec.IsEnabled() && spec.Provider.Type == agent.ProviderA2A && spec.Provider.Endpoint != "" {
					if _, seen := owner[spec.Provider.Endpoint]; !seen {
						endpoints = append(endpoints, spec.Provider.Endpoint)
					}
					owner[spec.Provider.Endpoint] = spec.Name
				}
			}
			fmt.Fprintln(out, headerStyle.Render("Agents"))
			fmt.Fprint(out, renderTable([]string{"NAME", "ROLE", "MODEL", "STATUS"}, rows))

			if len(endpoints) > 0 {
				fmt.Fprintln(out)
				statuses := agent.ProbeEndpoints(cmd.Context(), a2a.NewHTTPClient(), endpoints, timeout)
				rows = rows[:0]
				for _, st := range statuses {
					state, detail := "unreachable", st.Error
					if st.Reachable {
						state = "reachable"
						detail = st.Name
						if st.Version != "" {
							detail += " " + st.Version
						}
					}
					rows = append(rows, []string{st.Endpoint, owner[st.Endpoint], statusStyle(state).Render(state), detail})
				}
				fmt.Fprintln(out, headerStyle.Render("Endpoints"))
				fmt.Fprint(out, renderTable([]string{"ENDPOINT", "AGENT", "STATUS", "DETAIL"}, rows))
			}

			fmt.Fprintln(out)
			rows = rows[:0]
			for _, name := range a.Config.Workflows.Names() {
				wf, _ := a.Config.Workflows.Workflow(name)
				rows = append(rows, []string{name, strconv.Itoa(len(wf.Steps))})
			}
			fmt.Fprintln(out, headerStyle.Render("Workflows"))
			fmt.Fprint(out, renderTable([]string{"NAME", "STEPS"}, rows))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "per-endpoint probe timeout")
	return cmd
}
