package inbound

import (
	"time"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

const (
	methodAddComment  = "event::AddComment"
	methodAddDowntime = "event::AddDowntime"
)

// handleAddComment deserializes the body into a fresh domain.Comment and
// invokes the target's structured AddComment with the extracted fields
// and origin.
func (d *Dispatcher) handleAddComment(origin *signal.Origin, params map[string]any) {
	target, ok := d.resolveCheckable(origin, params, methodAddComment)
	if !ok {
		return
	}
	body, ok := params["comment"].(map[string]any)
	if !ok {
		d.reject(methodAddComment, "missing_body")
		return
	}
	comment := domain.Comment{
		ID:     toString(body["id"]),
		Author: toString(body["author"]),
		Text:   toString(body["text"]),
		Added:  timeOrNow(body["added"]),
	}
	target.AddComment(comment, origin)
	d.accept(methodAddComment)
}

// handleAddDowntime mirrors handleAddComment for scheduled downtimes.
func (d *Dispatcher) handleAddDowntime(origin *signal.Origin, params map[string]any) {
	target, ok := d.resolveCheckable(origin, params, methodAddDowntime)
	if !ok {
		return
	}
	body, ok := params["downtime"].(map[string]any)
	if !ok {
		d.reject(methodAddDowntime, "missing_body")
		return
	}
	downtime := domain.Downtime{
		ID:       toString(body["id"]),
		Author:   toString(body["author"]),
		Comment:  toString(body["comment"]),
		StartsAt: toTime(body["starts_at"]),
		EndsAt:   toTime(body["ends_at"]),
		Fixed:    toBool(body["fixed"]),
	}
	target.AddDowntime(downtime, origin)
	d.accept(methodAddDowntime)
}

func timeOrNow(v any) time.Time {
	t := toTime(v)
	if t.IsZero() {
		return time.Now()
	}
	return t
}
