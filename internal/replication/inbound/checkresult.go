package inbound

import (
	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

const methodCheckResult = "event::CheckResult"

// handleCheckResult implements the CheckResult deviation from the generic
// dispatch pattern: a reply from
// the checkable's own command-endpoint (we delegated to an agent, this is
// its answer) is applied without origin so the normal local reaction
// fires; anything else is applied with origin so the local processor
// knows this came from elsewhere in the mesh and forwards it onward.
func (d *Dispatcher) handleCheckResult(origin *signal.Origin, params map[string]any) {
	target, ok := d.resolveCheckable(origin, params, methodCheckResult)
	if !ok {
		return
	}
	crMap, ok := params["cr"].(map[string]any)
	if !ok {
		d.reject(methodCheckResult, "missing_cr")
		return
	}
	cr := domain.CheckResult{
		State:           domain.CheckState(toInt(crMap["state"])),
		Output:          toString(crMap["output"]),
		PerformanceData: reconstructPerfdata(crMap["performance_data"]),
		CheckSource:     toString(crMap["check_source"]),
		ExecutionStart:  toTime(crMap["execution_start"]),
		ExecutionEnd:    toTime(crMap["execution_end"]),
	}

	senderEndpoint, _ := clientEndpointName(origin)
	if senderEndpoint == target.CommandEndpoint() {
		target.ProcessCheckResult(cr, nil)
	} else {
		target.ProcessCheckResult(cr, origin)
	}
	d.accept(methodCheckResult)
}

// reconstructPerfdata rebuilds each performance-data entry as a
// domain.PerfdataValue when it arrived as a mapping (the JSON-over-the-
// wire shape); an entry that is already a domain.PerfdataValue (the
// in-process call shape, no JSON round trip) is preserved verbatim.
func reconstructPerfdata(raw any) []domain.PerfdataValue {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.PerfdataValue, 0, len(arr))
	for _, item := range arr {
		switch v := item.(type) {
		case domain.PerfdataValue:
			out = append(out, v)
		case map[string]any:
			out = append(out, perfdataFromMap(v))
		}
	}
	return out
}

func perfdataFromMap(m map[string]any) domain.PerfdataValue {
	pv := domain.PerfdataValue{
		Label: toString(m["label"]),
		Value: toFloat(m["value"]),
		Unit:  toString(m["unit"]),
	}
	if s, ok := m["warn"].(string); ok {
		pv.Warn = &s
	}
	if s, ok := m["crit"].(string); ok {
		pv.Crit = &s
	}
	if s, ok := m["min"].(string); ok {
		pv.Min = &s
	}
	if s, ok := m["max"].(string); ok {
		pv.Max = &s
	}
	return pv
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return 0
	}
}
