package object_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

type fixedDescriptor struct {
	name   string
	specs  []object.FieldSpec
	byName map[string]int
}

func newFixedDescriptor(name string, specs []object.FieldSpec) *fixedDescriptor {
	byName := make(map[string]int, len(specs))
	for i, s := range specs {
		byName[s.Name] = i
	}
	return &fixedDescriptor{name: name, specs: specs, byName: byName}
}

func (d *fixedDescriptor) TypeName() string               { return d.name }
func (d *fixedDescriptor) FieldSpecs() []object.FieldSpec  { return d.specs }
func (d *fixedDescriptor) FieldID(n string) (int, bool)    { id, ok := d.byName[n]; return id, ok }

func hostDescriptor() *fixedDescriptor {
	return newFixedDescriptor("Host", []object.FieldSpec{
		{Name: "vars", Class: object.ClassConfig},
		{Name: "check_interval", Class: object.ClassConfig},
		{Name: "next_check", Class: object.ClassState},
	})
}

func TestModifyAttribute_NestedMapTracksTopLevelOriginal(t *testing.T) {
	bus := signal.NewBus(nil)
	desc := hostDescriptor()
	obj := object.New(desc, "h1", bus, nil)

	var events []signal.Event
	bus.Subscribe(object.KindOriginalAttributesChanged, func(e signal.Event) {
		events = append(events, e)
	})

	require.NoError(t, obj.ModifyAttribute("vars.os", "linux", nil, nil))
	require.NoError(t, obj.ModifyAttribute("vars.os", "bsd", nil, nil))

	v, err := obj.Field("vars")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"os": "bsd"}, v)

	assert.True(t, obj.IsAttributeModified("vars.os"))
	assert.False(t, obj.IsAttributeModified("vars.other"))
	assert.Equal(t, []string{"vars.os"}, obj.OriginalAttributePaths())

	assert.EqualValues(t, 2, obj.Version())

	require.Len(t, events, 1, "original-attributes-changed fires once, on first mutation only")
	assert.Nil(t, events[0].Old)
}

func TestModifyAttribute_IntermediateNonMappingFails(t *testing.T) {
	bus := signal.NewBus(nil)
	desc := hostDescriptor()
	obj := object.New(desc, "h1", bus, nil)

	require.NoError(t, obj.ModifyAttribute("vars", "not-a-map", nil, nil))
	err := obj.ModifyAttribute("vars.os", "linux", nil, nil)
	require.ErrorIs(t, err, object.ErrInvalidArgument)
}

func TestRestoreAttribute_RestoresTopLevelField(t *testing.T) {
	bus := signal.NewBus(nil)
	desc := hostDescriptor()
	obj := object.New(desc, "h1", bus, nil)

	require.NoError(t, obj.ModifyAttribute("vars.os", "linux", nil, nil))
	require.NoError(t, obj.RestoreAttribute("vars.os"))

	v, err := obj.Field("vars")
	require.NoError(t, err)
	assert.Nil(t, v, "restore writes back the pre-modification top-level field value")
	assert.False(t, obj.IsAttributeModified("vars.os"))
}

func TestRestoreAttribute_UntrackedPathIsNoop(t *testing.T) {
	bus := signal.NewBus(nil)
	obj := object.New(hostDescriptor(), "h1", bus, nil)
	require.NoError(t, obj.RestoreAttribute("vars.os"))
}

func TestVersion_IncrementsOncePerModifyAttributeCall(t *testing.T) {
	bus := signal.NewBus(nil)
	obj := object.New(hostDescriptor(), "h1", bus, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, obj.ModifyAttribute("check_interval", i, nil, nil))
	}
	assert.EqualValues(t, 5, obj.Version())
}

type recordingLifecycle struct {
	object.NoopLifecycle
	started, stopped, paused, resumed int
}

func (r *recordingLifecycle) OnStart()  { r.started++ }
func (r *recordingLifecycle) OnStop()   { r.stopped++ }
func (r *recordingLifecycle) OnPause()  { r.paused++ }
func (r *recordingLifecycle) OnResume() { r.resumed++ }

func TestActivationLifecycle(t *testing.T) {
	bus := signal.NewBus(nil)
	obj := object.New(hostDescriptor(), "h1", bus, nil)
	lc := &recordingLifecycle{}

	obj.Activate(lc)
	assert.True(t, obj.Active())
	assert.False(t, obj.Paused())
	assert.Equal(t, 1, lc.started)
	assert.Equal(t, 1, lc.resumed)
	assert.True(t, obj.StartCalled())
	assert.True(t, obj.ResumeCalled())

	obj.SetAuthority(false, lc)
	assert.True(t, obj.Paused())
	assert.Equal(t, 1, lc.paused)

	obj.SetAuthority(false, lc)
	assert.Equal(t, 1, lc.paused, "idempotent: Pause not called twice")

	obj.Deactivate(lc)
	assert.False(t, obj.Active())
	assert.Equal(t, 1, lc.stopped)

	obj.Deactivate(lc)
	assert.Equal(t, 1, lc.stopped, "deactivating twice is a silent no-op")
}

func TestActivate_OnAlreadyActivePanics(t *testing.T) {
	bus := signal.NewBus(nil)
	obj := object.New(hostDescriptor(), "h1", bus, nil)
	lc := &recordingLifecycle{}
	obj.Activate(lc)

	assert.Panics(t, func() { obj.Activate(lc) })
}

func TestActivate_StartCalledExactlyOnceAcrossReactivation(t *testing.T) {
	bus := signal.NewBus(nil)
	obj := object.New(hostDescriptor(), "h1", bus, nil)
	lc := &recordingLifecycle{}

	obj.Activate(lc)
	obj.Deactivate(lc)
	obj.Activate(lc)

	assert.Equal(t, 1, lc.started, "Start runs exactly once over the object lifetime")
}
