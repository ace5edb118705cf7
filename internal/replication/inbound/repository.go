package inbound

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/icinga-cluster/clustercore/internal/signal"
)

const methodUpdateRepository = "event::UpdateRepository"

// renameFile and removeFile are package vars rather than direct os calls,
// following internal/snapshot's testability pattern: tests can swap them
// to simulate a rename failure after the temp file is already written.
var (
	renameFile = os.Rename
	removeFile = os.Remove
)

// handleUpdateRepository persists params as JSON to this endpoint's
// repository file, atomically (temp file + rename), then re-relays to the
// local zone so other siblings observe it.
func (d *Dispatcher) handleUpdateRepository(origin *signal.Origin, params map[string]any) {
	endpointName, ok := clientEndpointName(origin)
	if !ok {
		d.reject(methodUpdateRepository, "invalid_origin")
		return
	}
	if err := d.writeRepositoryFile(endpointName, params); err != nil {
		d.logger.Warn("repository write failed", "endpoint", endpointName, "error", err)
		d.reject(methodUpdateRepository, "write_failed")
		return
	}
	if d.relay != nil {
		d.relay.RelayLocal(methodUpdateRepository, params)
	}
	d.accept(methodUpdateRepository)
}

func (d *Dispatcher) repositoryPath(endpointName string) string {
	sum := sha256.Sum256([]byte(endpointName))
	fileName := hex.EncodeToString(sum[:]) + ".repo"
	return filepath.Join(d.stateDir, "lib", d.product, "api", "repository", fileName)
}

func (d *Dispatcher) writeRepositoryFile(endpointName string, params map[string]any) error {
	path := d.repositoryPath(endpointName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("inbound: create repository dir: %w", err)
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("inbound: marshal repository payload: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return fmt.Errorf("inbound: write temp repository file: %w", err)
	}
	if err := renameFile(tmpPath, path); err != nil {
		_ = removeFile(tmpPath)
		return fmt.Errorf("inbound: rename repository file: %w", err)
	}
	return nil
}
