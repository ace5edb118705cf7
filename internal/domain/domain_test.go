package domain_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

func TestZone_CanAccessObject(t *testing.T) {
	root := domain.NewZone("global", nil)
	satellite := domain.NewZone("sat1", root)
	agent := domain.NewZone("agent1", satellite)

	assert.True(t, root.CanAccessObject(agent), "root can reach every descendant")
	assert.True(t, satellite.CanAccessObject(agent))
	assert.False(t, agent.CanAccessObject(satellite), "a child cannot reach its parent's objects")
	assert.True(t, satellite.CanAccessObject(satellite), "a zone can always access its own objects")

	assert.True(t, agent.IsChildOf(root))
	assert.False(t, root.IsChildOf(agent))
	assert.Equal(t, []*domain.Zone{satellite, root}, agent.AllParents())
}

func newTestRegistry(t *testing.T) (*registry.Registry, *signal.Bus) {
	t.Helper()
	bus := signal.NewBus(nil)
	reg := registry.New(bus, prometheus.NewRegistry())
	require.NoError(t, domain.RegisterTypes(reg))
	return reg, bus
}

func TestHost_ServiceAttachment(t *testing.T) {
	reg, bus := newTestRegistry(t)
	hostDesc, err := reg.Type(domain.HostTypeName)
	require.NoError(t, err)
	svcDesc, err := reg.Type(domain.ServiceTypeName)
	require.NoError(t, err)

	host := domain.NewHost(hostDesc, "h1", bus, nil)
	require.NoError(t, reg.RegisterObject(domain.HostTypeName, host))

	svc := domain.NewService(svcDesc, "h1!ping", "h1", "ping", host, bus, nil)
	require.NoError(t, reg.RegisterObject(domain.ServiceTypeName, svc))
	host.AttachService(svc)

	assert.Same(t, svc, host.ServiceByShortName("ping"))
	assert.Equal(t, []string{"ping"}, host.ServiceShortNames())

	got, err := reg.Lookup(domain.HostTypeName, "h1")
	require.NoError(t, err)
	gotHost, ok := got.(*domain.Host)
	require.True(t, ok, "registry.Lookup must hand back the concrete *domain.Host, not the embedded *object.Object")
	assert.Same(t, host, gotHost)
}

func TestCheckable_ProcessCheckResultEmitsSignal(t *testing.T) {
	reg, bus := newTestRegistry(t)
	hostDesc, _ := reg.Type(domain.HostTypeName)
	host := domain.NewHost(hostDesc, "h1", bus, nil)

	var received []signal.Event
	bus.Subscribe(domain.KindCheckResult, func(e signal.Event) { received = append(received, e) })

	cr := domain.CheckResult{State: domain.StateOK, Output: "all good"}
	host.ProcessCheckResult(cr, nil)

	require.Len(t, received, 1)
	got, ok := received[0].New.(*domain.CheckResult)
	require.True(t, ok)
	assert.Equal(t, "all good", got.Output)
}

func TestCheckable_SetCheckIntervalTracksOriginal(t *testing.T) {
	reg, bus := newTestRegistry(t)
	hostDesc, _ := reg.Type(domain.HostTypeName)
	host := domain.NewHost(hostDesc, "h1", bus, nil)

	require.NoError(t, host.SetCheckInterval(60*time.Second, nil))
	assert.True(t, host.IsAttributeModified("check_interval"))
}

func TestCheckable_CommentLifecycle(t *testing.T) {
	reg, bus := newTestRegistry(t)
	hostDesc, _ := reg.Type(domain.HostTypeName)
	host := domain.NewHost(hostDesc, "h1", bus, nil)

	var added, removed int
	bus.Subscribe(domain.KindCommentAdded, func(signal.Event) { added++ })
	bus.Subscribe(domain.KindCommentRemoved, func(signal.Event) { removed++ })

	host.AddComment(domain.Comment{ID: "c1", Author: "op", Text: "investigating"}, nil)
	host.RemoveComment("c1", nil)

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}
