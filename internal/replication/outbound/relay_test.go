package outbound_test

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/replication/outbound"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// fakePeerListener records every relayed message for assertion.
type fakePeerListener struct {
	mu       sync.Mutex
	relayed  []outbound.Message
	scopeLog []any
}

func (f *fakePeerListener) RelayMessage(origin *signal.Origin, scope any, msg outbound.Message, logged bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relayed = append(f.relayed, msg)
	f.scopeLog = append(f.scopeLog, scope)
}

func (f *fakePeerListener) SyncSendMessage(dest string, msg outbound.Message) error {
	return nil
}

func (f *fakePeerListener) messages() []outbound.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]outbound.Message, len(f.relayed))
	copy(out, f.relayed)
	return out
}

func newTestSetup(t *testing.T) (*registry.Registry, *signal.Bus, *domain.Host) {
	t.Helper()
	bus := signal.NewBus(nil)
	reg := registry.New(bus, prometheus.NewRegistry())
	require.NoError(t, domain.RegisterTypes(reg))

	desc, err := reg.Type(domain.HostTypeName)
	require.NoError(t, err)
	host := domain.NewHost(desc, "h1", bus, nil)
	require.NoError(t, reg.RegisterObject(domain.HostTypeName, host))
	return reg, bus, host
}

func TestRelay_CheckResultInlinesPerformanceData(t *testing.T) {
	reg, bus, host := newTestSetup(t)
	peer := &fakePeerListener{}
	relay := outbound.NewRelay(reg, peer, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	cr := domain.CheckResult{
		State:           domain.StateCritical,
		Output:          "disk full",
		PerformanceData: []domain.PerfdataValue{{Label: "used", Value: 99.5, Unit: "%"}},
		ExecutionStart:  time.Unix(1000, 0),
		ExecutionEnd:    time.Unix(1001, 0),
	}
	host.ProcessCheckResult(cr, nil)

	msgs := peer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "event::CheckResult", msgs[0].Method)
	assert.Equal(t, "h1", msgs[0].Params["host"])
	payload := msgs[0].Params["cr"].(map[string]any)
	perfdata := payload["performance_data"].([]any)
	require.Len(t, perfdata, 1)
	assert.Equal(t, "used", perfdata[0].(domain.PerfdataValue).Label)
}

func TestRelay_ScalarAttributeChangeRelaysSetMethod(t *testing.T) {
	reg, bus, host := newTestSetup(t)
	peer := &fakePeerListener{}
	relay := outbound.NewRelay(reg, peer, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	require.NoError(t, host.SetCheckInterval(30*time.Second, nil))

	msgs := peer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "event::SetCheckInterval", msgs[0].Method)
	assert.Equal(t, 30*time.Second, msgs[0].Params["interval"])
}

func TestRelay_NoPeerListenerIsStandaloneNoop(t *testing.T) {
	reg, bus, host := newTestSetup(t)
	relay := outbound.NewRelay(reg, nil, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	require.NotPanics(t, func() {
		require.NoError(t, host.SetCheckInterval(time.Minute, nil))
	})
}

func TestRelay_ServiceIdentityIncludesHostAndShortName(t *testing.T) {
	reg, bus, host := newTestSetup(t)
	svcDesc, err := reg.Type(domain.ServiceTypeName)
	require.NoError(t, err)
	svc := domain.NewService(svcDesc, "h1!ping", "h1", "ping", host, bus, nil)
	require.NoError(t, reg.RegisterObject(domain.ServiceTypeName, svc))

	peer := &fakePeerListener{}
	relay := outbound.NewRelay(reg, peer, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	require.NoError(t, svc.SetEnableActiveChecks(false, nil))

	msgs := peer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "h1", msgs[0].Params["host"])
	assert.Equal(t, "ping", msgs[0].Params["service"])
	assert.Equal(t, false, msgs[0].Params["enabled"])
}

func TestRelay_VarsChangeUsesPolymorphicMethod(t *testing.T) {
	reg, bus, host := newTestSetup(t)
	peer := &fakePeerListener{}
	relay := outbound.NewRelay(reg, peer, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	require.NoError(t, host.ModifyAttribute("vars.os", "linux", nil, nil))

	msgs := peer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "event::Vars", msgs[0].Method)
	assert.Equal(t, "Host", msgs[0].Params["object_type"])
	assert.Equal(t, "h1", msgs[0].Params["name"])
}

func TestRelay_InboundOriginatedChangeIsNotRelayed(t *testing.T) {
	reg, bus, host := newTestSetup(t)
	peer := &fakePeerListener{}
	relay := outbound.NewRelay(reg, peer, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	origin := &signal.Origin{EndpointName: "peer-a", ZoneName: "z1"}
	require.NoError(t, host.SetCheckInterval(30*time.Second, origin))

	assert.Empty(t, peer.messages())
}

func TestReplayLog_RecordsOnlyLoggedMessages(t *testing.T) {
	reg, bus, host := newTestSetup(t)
	peer := &fakePeerListener{}
	relay := outbound.NewRelay(reg, peer, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	require.NoError(t, host.SetCheckInterval(15*time.Second, nil))
	replayed := relay.ReplaySince("Host!h1")
	require.Len(t, replayed, 1)
	assert.Equal(t, "event::SetCheckInterval", replayed[0].Method)
}
