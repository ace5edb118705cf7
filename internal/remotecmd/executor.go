// Package remotecmd implements the remote-command executor: it
// services ExecuteCommand requests forwarded (post-authorization) by the
// inbound dispatcher, fabricating a transient Host to run the
// requested check or event command against and replying point-to-point
// with the result, real or synthetic.
package remotecmd

import "github.com/icinga-cluster/clustercore/internal/domain"

// RemoteCommandExecutor is the external collaborator this package declares out
// of scope: the actual check engine. host carries the command-type and
// requester-endpoint metadata as extensions; macros is the flattened macro
// set the command line template resolves against.
type RemoteCommandExecutor interface {
	ExecuteRemoteCheck(host *domain.Host, macros map[string]any) (domain.CheckResult, error)
	ExecuteEventHandler(host *domain.Host, macros map[string]any, notify bool) error
}
