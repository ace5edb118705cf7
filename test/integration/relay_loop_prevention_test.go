package integration_test

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/replication/inbound"
	"github.com/icinga-cluster/clustercore/internal/replication/outbound"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// recordingPeerListener records every RelayMessage call for assertion; it
// never needs to actually deliver anything for this test.
type recordingPeerListener struct {
	mu      sync.Mutex
	relayed []outbound.Message
}

func (p *recordingPeerListener) RelayMessage(origin *signal.Origin, scope any, msg outbound.Message, logged bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.relayed = append(p.relayed, msg)
}

func (p *recordingPeerListener) SyncSendMessage(dest string, msg outbound.Message) error { return nil }

func (p *recordingPeerListener) messages() []outbound.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]outbound.Message, len(p.relayed))
	copy(out, p.relayed)
	return out
}

// Applying an inbound event::SetCheckInterval through Dispatcher must not
// cause the outbound Relay, subscribed to the same bus, to relay the
// resulting attribute change back out to any peer: the mutation's Origin
// threads through ModifyAttribute to the emitted signal, and the relay
// drops anything that didn't originate locally.
func TestDispatchedMutationIsNotRelayedOutbound(t *testing.T) {
	bus := signal.NewBus(nil)
	reg := registry.New(bus, prometheus.NewRegistry())
	require.NoError(t, domain.RegisterHostType(reg))

	zones := domain.NewZoneTable()
	z1 := domain.NewZone("Z1", nil)
	zones.Add(z1)
	endpoints := domain.NewEndpointTable()
	endpoints.Add(domain.NewEndpoint("E1", z1))

	desc, err := reg.Type(domain.HostTypeName)
	require.NoError(t, err)
	host := domain.NewHost(desc, "h", bus, nil)
	require.NoError(t, host.ModifyAttribute("zone", "Z1", nil, nil))
	require.NoError(t, reg.RegisterObject(domain.HostTypeName, host))

	peer := &recordingPeerListener{}
	relay := outbound.NewRelay(reg, peer, nil, outbound.NewMetrics(prometheus.NewRegistry()))
	relay.Start(bus)
	defer relay.Stop()

	d := inbound.NewDispatcher(inbound.Config{
		Registry:  reg,
		Zones:     zones,
		Endpoints: endpoints,
		LocalZone: z1,
		StateDir:  t.TempDir(),
		Product:   "clustercore",
		Metrics:   inbound.NewMetrics(prometheus.NewRegistry()),
	})

	origin := &signal.Origin{EndpointName: "E1", ZoneName: "Z1"}
	msg := inbound.Message{
		JSONRPC: "2.0",
		Method:  "event::SetCheckInterval",
		Params:  map[string]any{"host": "h", "interval": float64(60 * time.Second)},
	}
	require.NoError(t, d.Dispatch(origin, msg))

	v, err := host.Field("check_interval")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, v)

	assert.Empty(t, peer.messages(), "inbound-applied mutation must not be relayed back out")
}
