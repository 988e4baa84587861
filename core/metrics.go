package core

import "context"

// NopMetricsRecorder is the default recorder: connect flow counters and
// timings are dropped unless the host wires a real backend.
type NopMetricsRecorder struct{}

var _ MetricsRecorder = NopMetricsRecorder{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
