package agent

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/acan/internal/a2a"
)

// Discoverer fetches agent cards.
type Discoverer interface {
	DiscoverAgent(ctx context.Context, baseURL string) (*a2a.AgentCard, error)
}

// EndpointStatus is the reachability of one A2A endpoint.
type EndpointStatus struct {
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	Name      string `json:"name,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// maxConcurrentProbes bounds the number of in-flight discovery requests.
const maxConcurrentProbes = 8

// ProbeEndpoints discovers every endpoint concurrently, each bounded by
// timeout. Results keep the order of endpoints. A probe failure is recorded
// in its status and never cancels the others.
func ProbeEndpoints(ctx context.Context, d Discoverer, endpoints []string, timeout time.Duration) []EndpointStatus {
	results := make([]EndpointStatus, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)

	for i, ep := range endpoints {
		g.Go(func() error {
			results[i] = probeOne(gctx, d, ep, timeout)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func probeOne(ctx context.Context, d Discoverer, endpoint string, timeout time.Duration) (st EndpointStatus) {
	st.Endpoint = endpoint
	defer func() {
		if r := recover(); r != nil {
			st.Reachable = false
			st.Error = "probe panicked"
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	card, err := d.DiscoverAgent(ctx, endpoint)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Reachable = true
	st.Name = card.Name
	st.Version = card.Version
	return st
}
