package registry_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

func newTestRegistry(t *testing.T) (*registry.Registry, *signal.Bus) {
	t.Helper()
	bus := signal.NewBus(nil)
	return registry.New(bus, prometheus.NewRegistry()), bus
}

func hostDescriptor() *registry.TypeDescriptor {
	return registry.NewTypeDescriptor("Host", "hosts", []object.FieldSpec{
		{Name: "vars", Class: object.ClassConfig},
		{Name: "check_interval", Class: object.ClassConfig},
	}, nil)
}

type serviceComposer struct{}

func (serviceComposer) Compose(shortName string, parents ...string) string {
	return parents[0] + "!" + shortName
}

func serviceDescriptor() *registry.TypeDescriptor {
	return registry.NewTypeDescriptor("Service", "services", []object.FieldSpec{
		{Name: "check_interval", Class: object.ClassConfig},
	}, serviceComposer{})
}

func TestRegisterType_DuplicateFails(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterType(hostDescriptor()))
	err := r.RegisterType(hostDescriptor())
	require.ErrorIs(t, err, registry.ErrDuplicateType)
}

func TestTypeDescriptor_Compose(t *testing.T) {
	desc := serviceDescriptor()
	assert.Equal(t, "host1!ping", desc.Compose("ping", "host1"))
}

func TestRegisterObject_EnforcesAtMostOnePerTypeAndName(t *testing.T) {
	r, bus := newTestRegistry(t)
	require.NoError(t, r.RegisterType(hostDescriptor()))

	desc, err := r.Type("Host")
	require.NoError(t, err)
	h1 := object.New(desc, "host1", bus, nil)

	require.NoError(t, r.RegisterObject("Host", h1))

	h1Dup := object.New(desc, "host1", bus, nil)
	err = r.RegisterObject("Host", h1Dup)
	require.ErrorIs(t, err, registry.ErrDuplicateObject)
}

func TestRegisterObject_UnknownTypeFails(t *testing.T) {
	r, bus := newTestRegistry(t)
	obj := object.New(hostDescriptor(), "host1", bus, nil)
	err := r.RegisterObject("Host", obj)
	require.ErrorIs(t, err, registry.ErrUnknownType)
}

func TestLookupAndUnregister(t *testing.T) {
	r, bus := newTestRegistry(t)
	require.NoError(t, r.RegisterType(hostDescriptor()))
	desc, _ := r.Type("Host")
	h1 := object.New(desc, "host1", bus, nil)
	require.NoError(t, r.RegisterObject("Host", h1))

	got, err := r.Lookup("Host", "host1")
	require.NoError(t, err)
	assert.Same(t, h1, got)

	require.NoError(t, r.Unregister("Host", "host1"))
	_, err = r.Lookup("Host", "host1")
	require.ErrorIs(t, err, registry.ErrUnknownObject)

	err = r.Unregister("Host", "host1")
	require.ErrorIs(t, err, registry.ErrUnknownObject)
}

func TestValidateName(t *testing.T) {
	r, bus := newTestRegistry(t)
	require.NoError(t, r.RegisterType(hostDescriptor()))
	desc, _ := r.Type("Host")
	h1 := object.New(desc, "host1", bus, nil)
	require.NoError(t, r.RegisterObject("Host", h1))

	assert.True(t, r.ValidateName("Host", "host1"))
	assert.True(t, r.ValidateName("Host", "host1"), "second call hits the LRU cache")
	assert.False(t, r.ValidateName("Host", "host2"))

	require.NoError(t, r.Unregister("Host", "host1"))
	assert.False(t, r.ValidateName("Host", "host1"), "cache entry invalidated on unregister")
}

func TestObjects_SortedByName(t *testing.T) {
	r, bus := newTestRegistry(t)
	require.NoError(t, r.RegisterType(hostDescriptor()))
	desc, _ := r.Type("Host")
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.RegisterObject("Host", object.New(desc, name, bus, nil)))
	}

	objs, err := r.Objects("Host")
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{objs[0].Name(), objs[1].Name(), objs[2].Name()})
}

func TestStopObjects_DeactivatesEveryActiveObject(t *testing.T) {
	r, bus := newTestRegistry(t)
	require.NoError(t, r.RegisterType(hostDescriptor()))
	desc, _ := r.Type("Host")

	h1 := object.New(desc, "host1", bus, nil)
	h2 := object.New(desc, "host2", bus, nil)
	require.NoError(t, r.RegisterObject("Host", h1))
	require.NoError(t, r.RegisterObject("Host", h2))

	lc := object.NoopLifecycle{}
	h1.Activate(lc)
	h2.Activate(lc)

	r.StopObjects(lc)

	assert.False(t, h1.Active())
	assert.False(t, h2.Active())
}
