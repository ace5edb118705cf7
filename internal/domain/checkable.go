package domain

import (
	"time"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// Checkable is any object that can produce check results.
type Checkable interface {
	Name() string
	ZoneName() string
	CommandEndpoint() string
	LastCheckResult() *CheckResult
}

// PerfdataValue is a single performance-data point, serialized inline as
// its labelled fields rather than as an opaque object. Value is the numeric
// reading; the thresholds and bounds are kept as strings.
type PerfdataValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
	Warn  *string `json:"warn,omitempty"`
	Crit  *string `json:"crit,omitempty"`
	Min   *string `json:"min,omitempty"`
	Max   *string `json:"max,omitempty"`
}

// CheckState mirrors the monitoring platform's four-valued check state.
type CheckState int

const (
	StateOK CheckState = iota
	StateWarning
	StateCritical
	StateUnknown
)

// CheckResult is the outcome of running a check or command against a
// checkable, carried both locally and across the wire.
type CheckResult struct {
	State           CheckState      `json:"state"`
	Output          string          `json:"output"`
	PerformanceData []PerfdataValue `json:"performance_data,omitempty"`
	CheckSource     string          `json:"check_source,omitempty"`
	ExecutionStart  time.Time       `json:"execution_start"`
	ExecutionEnd    time.Time       `json:"execution_end"`
}

// AcknowledgementType enumerates acknowledgement kinds; it travels over the
// wire as an integer rather than a string.
type AcknowledgementType int

const (
	AckNone AcknowledgementType = iota
	AckNormal
	AckSticky
)

// Comment is a free-text annotation attached to a checkable.
type Comment struct {
	ID     string    `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Added  time.Time `json:"added"`
}

// Downtime is a scheduled suppression window attached to a checkable.
type Downtime struct {
	ID       string    `json:"id"`
	Author   string    `json:"author"`
	Comment  string    `json:"comment"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Fixed    bool      `json:"fixed"`
}

// checkableFieldSpecs returns the field schema shared by every Checkable
// (Host and Service); each concrete type appends its own identity fields
// on top of these.
func checkableFieldSpecs() []object.FieldSpec {
	return []object.FieldSpec{
		{Name: "zone", Class: object.ClassConfig},
		{Name: "command_endpoint", Class: object.ClassConfig},
		{Name: "vars", Class: object.ClassConfig},
		{Name: "check_command", Class: object.ClassConfig},
		{Name: "check_period", Class: object.ClassConfig},
		{Name: "event_command", Class: object.ClassConfig},
		{Name: "check_interval", Class: object.ClassConfig},
		{Name: "retry_interval", Class: object.ClassConfig},
		{Name: "max_check_attempts", Class: object.ClassConfig},
		{Name: "enable_active_checks", Class: object.ClassConfig},
		{Name: "enable_passive_checks", Class: object.ClassConfig},
		{Name: "enable_notifications", Class: object.ClassConfig},
		{Name: "enable_perfdata", Class: object.ClassConfig},
		{Name: "enable_flapping", Class: object.ClassConfig},
		{Name: "enable_event_handler", Class: object.ClassConfig},
		{Name: "next_check", Class: object.ClassState},
		{Name: "force_next_check", Class: object.ClassState},
		{Name: "force_next_notification", Class: object.ClassState},
		{Name: "last_check_result", Class: object.ClassState},
		{Name: "acknowledgement", Class: object.ClassState},
		{Name: "comments", Class: object.ClassState},
		{Name: "downtimes", Class: object.ClassState},
	}
}

// Signal kinds the outbound relay subscribes to in order to relay checkable mutations.
// Config-class scalar fields (check_interval, vars, ...) are mutated via
// ModifyAttribute and already emit object.KindOriginalAttributesChanged;
// these additional kinds cover the State-class fields and structured
// operations ModifyAttribute's generic path does not fit.
const (
	KindCheckResult               signal.Kind = "check_result"
	KindNextCheckChanged           signal.Kind = "next_check_changed"
	KindForceNextCheckChanged      signal.Kind = "force_next_check_changed"
	KindForceNextNotifChanged      signal.Kind = "force_next_notification_changed"
	KindCommentAdded               signal.Kind = "comment_added"
	KindCommentRemoved             signal.Kind = "comment_removed"
	KindDowntimeAdded              signal.Kind = "downtime_added"
	KindDowntimeRemoved            signal.Kind = "downtime_removed"
	KindAcknowledgementSet         signal.Kind = "acknowledgement_set"
	KindAcknowledgementCleared     signal.Kind = "acknowledgement_cleared"
)

// checkableFieldIDs caches the field ids a Checkable's typed setters
// operate on, resolved once at construction so hot mutation paths (check
// results, next-check rescheduling) skip the name->id map lookup.
type checkableFieldIDs struct {
	zone                  int
	commandEndpoint       int
	vars                  int
	checkCommand          int
	checkPeriod           int
	eventCommand          int
	checkInterval         int
	retryInterval         int
	maxCheckAttempts      int
	enableActiveChecks    int
	enablePassiveChecks   int
	enableNotifications   int
	enablePerfdata        int
	enableFlapping        int
	enableEventHandler    int
	nextCheck             int
	forceNextCheck        int
	forceNextNotification int
	lastCheckResult       int
	acknowledgement       int
	comments              int
	downtimes             int
}

func mustFieldID(o *object.Object, name string) int {
	id, ok := o.FieldID(name)
	if !ok {
		panic("domain: checkable descriptor missing field " + name)
	}
	return id
}

func newCheckableFieldIDs(o *object.Object) checkableFieldIDs {
	return checkableFieldIDs{
		zone:                  mustFieldID(o, "zone"),
		commandEndpoint:       mustFieldID(o, "command_endpoint"),
		vars:                  mustFieldID(o, "vars"),
		checkCommand:          mustFieldID(o, "check_command"),
		checkPeriod:           mustFieldID(o, "check_period"),
		eventCommand:          mustFieldID(o, "event_command"),
		checkInterval:         mustFieldID(o, "check_interval"),
		retryInterval:         mustFieldID(o, "retry_interval"),
		maxCheckAttempts:      mustFieldID(o, "max_check_attempts"),
		enableActiveChecks:    mustFieldID(o, "enable_active_checks"),
		enablePassiveChecks:   mustFieldID(o, "enable_passive_checks"),
		enableNotifications:   mustFieldID(o, "enable_notifications"),
		enablePerfdata:        mustFieldID(o, "enable_perfdata"),
		enableFlapping:        mustFieldID(o, "enable_flapping"),
		enableEventHandler:    mustFieldID(o, "enable_event_handler"),
		nextCheck:             mustFieldID(o, "next_check"),
		forceNextCheck:        mustFieldID(o, "force_next_check"),
		forceNextNotification: mustFieldID(o, "force_next_notification"),
		lastCheckResult:       mustFieldID(o, "last_check_result"),
		acknowledgement:       mustFieldID(o, "acknowledgement"),
		comments:              mustFieldID(o, "comments"),
		downtimes:             mustFieldID(o, "downtimes"),
	}
}

// checkableBase implements the mutation surface shared by Host and Service.
// It embeds *object.Object for field storage, lifecycle, and signal
// emission, adding typed, named accessors so callers never
// thread raw attribute paths or field ids through the domain layer.
type checkableBase struct {
	*object.Object
	ids checkableFieldIDs
}

func newCheckableBase(o *object.Object) checkableBase {
	return checkableBase{Object: o, ids: newCheckableFieldIDs(o)}
}

func (c *checkableBase) ZoneName() string {
	v, _ := c.Field("zone")
	s, _ := v.(string)
	return s
}

func (c *checkableBase) CommandEndpoint() string {
	v, _ := c.Field("command_endpoint")
	s, _ := v.(string)
	return s
}

func (c *checkableBase) SetCommandEndpoint(name string) {
	c.SetField(c.ids.commandEndpoint, name)
}

func (c *checkableBase) LastCheckResult() *CheckResult {
	v := c.FieldByID(c.ids.lastCheckResult)
	cr, _ := v.(*CheckResult)
	return cr
}

// ProcessCheckResult records cr as the checkable's last result and emits
// KindCheckResult for the outbound relay to pick up; next_check is left
// unchanged.
// origin is nil for a locally produced result, or the inbound peer origin
// for a delegated or forwarded result (see command-endpoint handling in
// the inbound dispatcher).
func (c *checkableBase) ProcessCheckResult(cr CheckResult, origin *signal.Origin) {
	old := c.SetField(c.ids.lastCheckResult, &cr)
	c.Bus().Emit(signal.Event{
		Kind:   KindCheckResult,
		Type:   c.TypeName(),
		Name:   c.Name(),
		Old:    old,
		New:    &cr,
		Origin: origin,
	})
}

// SetNextCheck reschedules the next check time and emits KindNextCheckChanged.
func (c *checkableBase) SetNextCheck(t time.Time, origin *signal.Origin) {
	old := c.SetField(c.ids.nextCheck, t)
	c.Bus().Emit(signal.Event{Kind: KindNextCheckChanged, Type: c.TypeName(), Name: c.Name(), Old: old, New: t, Origin: origin})
}

func (c *checkableBase) NextCheck() time.Time {
	v := c.FieldByID(c.ids.nextCheck)
	t, _ := v.(time.Time)
	return t
}

// SetForceNextCheck flags the checkable to run immediately regardless of
// schedule, and emits KindForceNextCheckChanged.
func (c *checkableBase) SetForceNextCheck(force bool, origin *signal.Origin) {
	old := c.SetField(c.ids.forceNextCheck, force)
	c.Bus().Emit(signal.Event{Kind: KindForceNextCheckChanged, Type: c.TypeName(), Name: c.Name(), Old: old, New: force, Origin: origin})
}

// SetForceNextNotification flags the next state change to notify
// regardless of notification-period/flapping suppression.
func (c *checkableBase) SetForceNextNotification(force bool, origin *signal.Origin) {
	old := c.SetField(c.ids.forceNextNotification, force)
	c.Bus().Emit(signal.Event{Kind: KindForceNextNotifChanged, Type: c.TypeName(), Name: c.Name(), Old: old, New: force, Origin: origin})
}

// SetCheckInterval, SetRetryInterval, SetMaxCheckAttempts, SetCheckCommand,
// SetCheckPeriod, SetEventCommand, and the enable-* flags are Config-class
// scalars; they go through ModifyAttribute so original-value tracking and
// the generic KindOriginalAttributesChanged relay signal apply uniformly.

func (c *checkableBase) SetCheckInterval(d time.Duration, origin *signal.Origin) error {
	return c.ModifyAttribute("check_interval", d, origin, nil)
}

func (c *checkableBase) SetRetryInterval(d time.Duration, origin *signal.Origin) error {
	return c.ModifyAttribute("retry_interval", d, origin, nil)
}

func (c *checkableBase) SetMaxCheckAttempts(n int, origin *signal.Origin) error {
	return c.ModifyAttribute("max_check_attempts", n, origin, nil)
}

func (c *checkableBase) SetCheckCommand(name string, origin *signal.Origin, resolver object.NameResolver) error {
	return c.ModifyAttribute("check_command", name, origin, resolver)
}

func (c *checkableBase) SetCheckPeriod(name string, origin *signal.Origin, resolver object.NameResolver) error {
	return c.ModifyAttribute("check_period", name, origin, resolver)
}

func (c *checkableBase) SetEventCommand(name string, origin *signal.Origin, resolver object.NameResolver) error {
	return c.ModifyAttribute("event_command", name, origin, resolver)
}

func (c *checkableBase) SetEnableActiveChecks(enabled bool, origin *signal.Origin) error {
	return c.ModifyAttribute("enable_active_checks", enabled, origin, nil)
}

func (c *checkableBase) SetEnablePassiveChecks(enabled bool, origin *signal.Origin) error {
	return c.ModifyAttribute("enable_passive_checks", enabled, origin, nil)
}

func (c *checkableBase) SetEnableNotifications(enabled bool, origin *signal.Origin) error {
	return c.ModifyAttribute("enable_notifications", enabled, origin, nil)
}

func (c *checkableBase) SetEnablePerfdata(enabled bool, origin *signal.Origin) error {
	return c.ModifyAttribute("enable_perfdata", enabled, origin, nil)
}

func (c *checkableBase) SetEnableFlapping(enabled bool, origin *signal.Origin) error {
	return c.ModifyAttribute("enable_flapping", enabled, origin, nil)
}

func (c *checkableBase) SetEnableEventHandler(enabled bool, origin *signal.Origin) error {
	return c.ModifyAttribute("enable_event_handler", enabled, origin, nil)
}

// AddComment appends a comment and emits KindCommentAdded.
func (c *checkableBase) AddComment(comment Comment, origin *signal.Origin) {
	v := c.FieldByID(c.ids.comments)
	comments, _ := v.([]Comment)
	comments = append(comments, comment)
	c.SetField(c.ids.comments, comments)
	c.Bus().Emit(signal.Event{Kind: KindCommentAdded, Type: c.TypeName(), Name: c.Name(), New: comment, Origin: origin})
}

// RemoveComment drops the comment with the given id and emits KindCommentRemoved.
func (c *checkableBase) RemoveComment(id string, origin *signal.Origin) {
	v := c.FieldByID(c.ids.comments)
	comments, _ := v.([]Comment)
	for i, cm := range comments {
		if cm.ID == id {
			comments = append(comments[:i], comments[i+1:]...)
			c.SetField(c.ids.comments, comments)
			c.Bus().Emit(signal.Event{Kind: KindCommentRemoved, Type: c.TypeName(), Name: c.Name(), Old: id, Origin: origin})
			return
		}
	}
}

// AddDowntime schedules a downtime window and emits KindDowntimeAdded.
func (c *checkableBase) AddDowntime(d Downtime, origin *signal.Origin) {
	v := c.FieldByID(c.ids.downtimes)
	downtimes, _ := v.([]Downtime)
	downtimes = append(downtimes, d)
	c.SetField(c.ids.downtimes, downtimes)
	c.Bus().Emit(signal.Event{Kind: KindDowntimeAdded, Type: c.TypeName(), Name: c.Name(), New: d, Origin: origin})
}

// RemoveDowntime cancels the downtime with the given id and emits KindDowntimeRemoved.
func (c *checkableBase) RemoveDowntime(id string, origin *signal.Origin) {
	v := c.FieldByID(c.ids.downtimes)
	downtimes, _ := v.([]Downtime)
	for i, d := range downtimes {
		if d.ID == id {
			downtimes = append(downtimes[:i], downtimes[i+1:]...)
			c.SetField(c.ids.downtimes, downtimes)
			c.Bus().Emit(signal.Event{Kind: KindDowntimeRemoved, Type: c.TypeName(), Name: c.Name(), Old: id, Origin: origin})
			return
		}
	}
}

// SetAcknowledgement sets the acknowledgement state and emits KindAcknowledgementSet.
func (c *checkableBase) SetAcknowledgement(ackType AcknowledgementType, origin *signal.Origin) {
	old := c.SetField(c.ids.acknowledgement, ackType)
	c.Bus().Emit(signal.Event{Kind: KindAcknowledgementSet, Type: c.TypeName(), Name: c.Name(), Old: old, New: ackType, Origin: origin})
}

// ClearAcknowledgement resets the acknowledgement to AckNone and emits
// KindAcknowledgementCleared.
func (c *checkableBase) ClearAcknowledgement(origin *signal.Origin) {
	old := c.SetField(c.ids.acknowledgement, AckNone)
	c.Bus().Emit(signal.Event{Kind: KindAcknowledgementCleared, Type: c.TypeName(), Name: c.Name(), Old: old, New: AckNone, Origin: origin})
}
