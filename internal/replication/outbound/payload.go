package outbound

import "github.com/icinga-cluster/clustercore/internal/domain"

// checkResultPayload renders a CheckResult for the wire, with
// performance_data left as already-serialized PerfdataValue entries
// (struct, not opaque) so the receiver can discriminate scalar vs. mapping
// perfdata entries on the way back in.
func checkResultPayload(cr *domain.CheckResult) map[string]any {
	payload := map[string]any{
		"state":           int(cr.State),
		"output":          cr.Output,
		"execution_start": cr.ExecutionStart.Unix(),
		"execution_end":   cr.ExecutionEnd.Unix(),
	}
	if cr.CheckSource != "" {
		payload["check_source"] = cr.CheckSource
	}
	if len(cr.PerformanceData) > 0 {
		perfdata := make([]any, len(cr.PerformanceData))
		for i, v := range cr.PerformanceData {
			perfdata[i] = v
		}
		payload["performance_data"] = perfdata
	}
	return payload
}
