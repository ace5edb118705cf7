package snapshot_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
	"github.com/icinga-cluster/clustercore/internal/snapshot"
)

func newTestRegistry(t *testing.T) (*registry.Registry, *signal.Bus) {
	t.Helper()
	bus := signal.NewBus(nil)
	reg := registry.New(bus, prometheus.NewRegistry())
	require.NoError(t, reg.RegisterType(registry.NewTypeDescriptor("Host", "hosts", []object.FieldSpec{
		{Name: "address", Class: object.ClassConfig},
		{Name: "next_check", Class: object.ClassState},
	}, nil)))
	return reg, bus
}

func TestSnapshot_DumpAndRestoreRoundTrip(t *testing.T) {
	reg, bus := newTestRegistry(t)
	desc, err := reg.Type("Host")
	require.NoError(t, err)

	names := []string{"h1", "h2", "h3"}
	for i, name := range names {
		o := object.New(desc, name, bus, nil)
		_, err := o.SetFieldByName("address", "addr-"+name)
		require.NoError(t, err)
		_, err = o.SetFieldByName("next_check", int64(1000+i))
		require.NoError(t, err)
		require.NoError(t, reg.RegisterObject("Host", o))
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.dat")

	dumper := snapshot.NewDumper(reg, nil, snapshot.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, dumper.DumpObjects(path, object.ClassState|object.ClassConfig))

	reg2, bus2 := newTestRegistry(t)
	desc2, _ := reg2.Type("Host")
	for _, name := range names {
		require.NoError(t, reg2.RegisterObject("Host", object.New(desc2, name, bus2, nil)))
	}

	restorer := snapshot.NewRestorer(reg2, 2, nil, snapshot.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, restorer.RestoreObjects(path, object.ClassState|object.ClassConfig))

	for i, name := range names {
		inst, err := reg2.Lookup("Host", name)
		require.NoError(t, err)
		target, ok := inst.(snapshot.Target)
		require.True(t, ok)
		assert.True(t, target.StateLoaded())

		addr, err := reg2LookupField(reg2, name, "address")
		require.NoError(t, err)
		assert.Equal(t, "addr-"+name, addr)

		nc, err := reg2LookupField(reg2, name, "next_check")
		require.NoError(t, err)
		// Records are JSON, so numbers come back as float64.
		assert.Equal(t, float64(1000+i), nc)
	}
}

func reg2LookupField(reg *registry.Registry, name, field string) (any, error) {
	inst, err := reg.Lookup("Host", name)
	if err != nil {
		return nil, err
	}
	o, ok := inst.(*object.Object)
	if !ok {
		return nil, errors.New("not an *object.Object")
	}
	return o.Field(field)
}

func TestSnapshot_AtomicRenameFailureLeavesExistingFileUntouched(t *testing.T) {
	reg, bus := newTestRegistry(t)
	desc, _ := reg.Type("Host")
	o := object.New(desc, "h1", bus, nil)
	_, err := o.SetFieldByName("address", "1.2.3.4")
	require.NoError(t, err)
	require.NoError(t, reg.RegisterObject("Host", o))

	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.dat")
	require.NoError(t, os.WriteFile(path, []byte("original-contents"), 0o644))

	snapshot.SetRenameHookForTest(func(oldpath, newpath string) error {
		return errors.New("simulated rename failure")
	})
	defer snapshot.SetRenameHookForTest(os.Rename)

	dumper := snapshot.NewDumper(reg, nil, snapshot.NewMetrics(prometheus.NewRegistry()))
	err = dumper.DumpObjects(path, object.ClassConfig)
	require.Error(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original-contents", string(contents))
}

func TestSnapshot_UnreadableFileIsFatal(t *testing.T) {
	reg, _ := newTestRegistry(t)
	restorer := snapshot.NewRestorer(reg, 1, nil, snapshot.NewMetrics(prometheus.NewRegistry()))
	err := restorer.RestoreObjects(filepath.Join(t.TempDir(), "missing.dat"), object.ClassConfig)
	require.Error(t, err)
}
