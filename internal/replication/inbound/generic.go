package inbound

import (
	"time"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

type genericHandler func(checkableTarget, map[string]any, *signal.Origin, object.NameResolver) error

// buildGenericHandlers returns the dispatch table for every checkable
// signal that carries a single scalar payload, keyed by the wire method
// name with its "event::" prefix stripped. CheckResult, Vars,
// AddComment/AddDowntime, UpdateRepository, and ExecuteCommand all deviate
// from this shape and are dispatched separately in dispatcher.go.
func buildGenericHandlers() map[string]genericHandler {
	return map[string]genericHandler{
		"SetNextCheck": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			t.SetNextCheck(toTime(p["next_check"]), o)
			return nil
		},
		"SetForceNextCheck": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			t.SetForceNextCheck(toBool(p["forced"]), o)
			return nil
		},
		"SetForceNextNotification": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			t.SetForceNextNotification(toBool(p["forced"]), o)
			return nil
		},
		"SetCheckInterval": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetCheckInterval(toDuration(p["interval"]), o)
		},
		"SetRetryInterval": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetRetryInterval(toDuration(p["interval"]), o)
		},
		"SetMaxCheckAttempts": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetMaxCheckAttempts(toInt(p["max_check_attempts"]), o)
		},
		"SetCheckCommand": func(t checkableTarget, p map[string]any, o *signal.Origin, r object.NameResolver) error {
			return t.SetCheckCommand(toString(p["command"]), o, r)
		},
		"SetCheckPeriod": func(t checkableTarget, p map[string]any, o *signal.Origin, r object.NameResolver) error {
			return t.SetCheckPeriod(toString(p["period"]), o, r)
		},
		"SetEventCommand": func(t checkableTarget, p map[string]any, o *signal.Origin, r object.NameResolver) error {
			return t.SetEventCommand(toString(p["command"]), o, r)
		},
		"EnableActiveChecks": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetEnableActiveChecks(toBool(p["enabled"]), o)
		},
		"EnablePassiveChecks": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetEnablePassiveChecks(toBool(p["enabled"]), o)
		},
		"EnableNotifications": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetEnableNotifications(toBool(p["enabled"]), o)
		},
		"EnablePerfdata": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetEnablePerfdata(toBool(p["enabled"]), o)
		},
		"EnableFlapping": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetEnableFlapping(toBool(p["enabled"]), o)
		},
		"EnableEventHandler": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			return t.SetEnableEventHandler(toBool(p["enabled"]), o)
		},
		"RemoveComment": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			t.RemoveComment(toString(p["id"]), o)
			return nil
		},
		"RemoveDowntime": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			t.RemoveDowntime(toString(p["id"]), o)
			return nil
		},
		"SetAcknowledgement": func(t checkableTarget, p map[string]any, o *signal.Origin, _ object.NameResolver) error {
			t.SetAcknowledgement(domain.AcknowledgementType(toInt(p["type"])), o)
			return nil
		},
		"ClearAcknowledgement": func(t checkableTarget, _ map[string]any, o *signal.Origin, _ object.NameResolver) error {
			t.ClearAcknowledgement(o)
			return nil
		},
	}
}

func toDuration(v any) time.Duration {
	switch x := v.(type) {
	case time.Duration:
		return x
	case float64:
		return time.Duration(x)
	case int64:
		return time.Duration(x)
	case int:
		return time.Duration(x)
	default:
		return 0
	}
}

func toTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case float64:
		return time.Unix(int64(x), 0)
	case int64:
		return time.Unix(x, 0)
	case int:
		return time.Unix(int64(x), 0)
	default:
		return time.Time{}
	}
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case float64:
		return int(x)
	case int64:
		return int(x)
	default:
		return 0
	}
}
