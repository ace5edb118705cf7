package remotecmd

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/replication/outbound"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

type fakeExecutor struct {
	checkResult domain.CheckResult
	checkErr    error
	eventErr    error

	gotHostName string
}

func (f *fakeExecutor) ExecuteRemoteCheck(host *domain.Host, macros map[string]any) (domain.CheckResult, error) {
	f.gotHostName = host.Name()
	return f.checkResult, f.checkErr
}

func (f *fakeExecutor) ExecuteEventHandler(host *domain.Host, macros map[string]any, notify bool) error {
	f.gotHostName = host.Name()
	return f.eventErr
}

type fakeSender struct {
	mu   sync.Mutex
	sent []outbound.Message
	dest []string
	err  error
}

func (f *fakeSender) SyncSendMessage(dest string, msg outbound.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	f.dest = append(f.dest, dest)
	return f.err
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	bus := signal.NewBus(nil)
	reg := registry.New(bus, prometheus.NewRegistry())
	require.NoError(t, domain.RegisterHostType(reg))
	require.NoError(t, domain.RegisterCommandTypes(reg))
	return reg
}

func registerCheckCommand(t *testing.T, reg *registry.Registry, name string) {
	t.Helper()
	desc, err := reg.Type(domain.CheckCommandTypeName)
	require.NoError(t, err)
	cmd := domain.NewCommand(domain.CheckCommandKind, desc, name, reg.Bus(), nil)
	require.NoError(t, reg.RegisterObject(domain.CheckCommandTypeName, cmd))
}

func TestRunCommandRefusedWhenAcceptCommandsFalse(t *testing.T) {
	reg := newTestRegistry(t)
	registerCheckCommand(t, reg, "check_ping")
	sender := &fakeSender{}
	r := NewRunner(Config{
		Registry:       reg,
		Executor:       &fakeExecutor{},
		Sender:         sender,
		SelfEndpoint:   "self",
		AcceptCommands: false,
	})

	r.RunCommand("requester", map[string]any{
		"host": "h1", "command": "check_ping", "type": "check",
	})

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "requester", sender.dest[0])
	assert.Contains(t, sender.sent[0].Params["cr"].(map[string]any)["output"], "does not accept commands")
}

func TestRunCommandRefusesUnknownCommand(t *testing.T) {
	reg := newTestRegistry(t)
	sender := &fakeSender{}
	r := NewRunner(Config{
		Registry:       reg,
		Executor:       &fakeExecutor{},
		Sender:         sender,
		SelfEndpoint:   "self",
		AcceptCommands: true,
	})

	r.RunCommand("requester", map[string]any{
		"host": "h1", "command": "nope", "type": "check",
	})

	require.Len(t, sender.sent, 1)
	cr := sender.sent[0].Params["cr"].(map[string]any)
	assert.Contains(t, cr["output"], "does not exist")
}

func TestRunCommandExecutesCheckAndReplies(t *testing.T) {
	reg := newTestRegistry(t)
	registerCheckCommand(t, reg, "check_ping")
	sender := &fakeSender{}
	executor := &fakeExecutor{checkResult: domain.CheckResult{State: domain.StateOK, Output: "PING OK"}}
	r := NewRunner(Config{
		Registry:       reg,
		Executor:       executor,
		Sender:         sender,
		SelfEndpoint:   "self",
		AcceptCommands: true,
	})

	r.RunCommand("requester", map[string]any{
		"host": "h1", "command": "check_ping", "type": "check",
	})

	assert.Equal(t, "h1", executor.gotHostName)
	require.Len(t, sender.sent, 1)
	cr := sender.sent[0].Params["cr"].(map[string]any)
	assert.Equal(t, "PING OK", cr["output"])
}

func TestRunCommandEventHandlerDoesNotReply(t *testing.T) {
	reg := newTestRegistry(t)
	desc, err := reg.Type(domain.EventCommandTypeName)
	require.NoError(t, err)
	cmd := domain.NewCommand(domain.EventCommandKind, desc, "restart_service", reg.Bus(), nil)
	require.NoError(t, reg.RegisterObject(domain.EventCommandTypeName, cmd))

	sender := &fakeSender{}
	executor := &fakeExecutor{}
	r := NewRunner(Config{
		Registry:       reg,
		Executor:       executor,
		Sender:         sender,
		SelfEndpoint:   "self",
		AcceptCommands: true,
	})

	r.RunCommand("requester", map[string]any{
		"host": "h1", "command": "restart_service", "type": "event",
	})

	assert.Equal(t, "h1", executor.gotHostName)
	assert.Empty(t, sender.sent)
}

func TestSetSenderSwapsReplyTarget(t *testing.T) {
	reg := newTestRegistry(t)
	registerCheckCommand(t, reg, "check_ping")
	r := NewRunner(Config{
		Registry:       reg,
		Executor:       &fakeExecutor{checkResult: domain.CheckResult{State: domain.StateOK}},
		SelfEndpoint:   "self",
		AcceptCommands: true,
	})

	r.RunCommand("requester", map[string]any{"host": "h1", "command": "check_ping", "type": "check"})

	second := &fakeSender{}
	r.SetSender(second)
	r.RunCommand("requester", map[string]any{"host": "h1", "command": "check_ping", "type": "check"})

	assert.Len(t, second.sent, 1)
}
