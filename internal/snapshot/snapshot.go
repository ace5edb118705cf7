package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/serialize"
)

// renameFile and removeFile are package vars, not direct os calls, so
// tests can simulate a rename failure after the temp file has already
// been written (the "atomic rename" testable scenario).
var (
	renameFile = os.Rename
	removeFile = os.Remove
)

// record is the on-disk shape of one net-string payload.
type record struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Update map[string]any `json:"update"`
}

// Target is what snapshot needs from a registered instance beyond the
// registry's own object.Instance: field access for serialization and the
// state-loaded bookkeeping flag. Any domain type built on object.Object
// satisfies it through method promotion.
type Target interface {
	Name() string
	FieldSpecs() []object.FieldSpec
	FieldByID(int) any
	FieldID(name string) (int, bool)
	SetField(fid int, value any) any
	Active() bool
	StateLoaded() bool
	MarkStateLoaded()
}

// stateLoadHook is an optional finalization callback a domain type may
// implement to react once restoration has decided its fate (touched by a
// record or not).
type stateLoadHook interface {
	OnStateLoaded()
}

// Dumper writes the state snapshot file.
type Dumper struct {
	reg     *registry.Registry
	logger  *slog.Logger
	metrics *Metrics
}

// NewDumper constructs a Dumper bound to reg.
func NewDumper(reg *registry.Registry, logger *slog.Logger, metrics *Metrics) *Dumper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dumper{reg: reg, logger: logger.With("component", "snapshot"), metrics: metrics}
}

// DumpObjects serializes every registered object whose fields intersect
// mask into path, via a temp-file-then-rename atomic write. Objects whose
// serialized tree is empty are skipped (nothing to restore).
func (d *Dumper) DumpObjects(path string, mask object.FieldClass) (err error) {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	w := bufio.NewWriter(f)
	count := 0
	for _, typeName := range d.reg.Types() {
		objs, lookupErr := d.reg.Objects(typeName)
		if lookupErr != nil {
			continue
		}
		for _, inst := range objs {
			target, ok := inst.(Target)
			if !ok {
				continue
			}
			tree := serialize.Serialize(target, mask)
			if len(tree) == 0 {
				continue
			}
			payload, marshalErr := json.Marshal(record{Type: typeName, Name: target.Name(), Update: tree})
			if marshalErr != nil {
				return fmt.Errorf("snapshot: marshal %s!%s: %w", typeName, target.Name(), marshalErr)
			}
			if writeErr := writeRecord(w, payload); writeErr != nil {
				return fmt.Errorf("snapshot: write record: %w", writeErr)
			}
			count++
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("snapshot: flush: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("snapshot: fsync: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp file: %w", err)
	}

	if err = renameFile(tmpPath, path); err != nil {
		_ = removeFile(tmpPath)
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}

	if d.metrics != nil {
		d.metrics.RecordsWritten.Add(float64(count))
		d.metrics.DumpsTotal.Inc()
	}
	d.logger.Info("wrote snapshot", "path", path, "records", count)
	return nil
}

// Restorer reads the state snapshot file back into the registry's objects.
type Restorer struct {
	reg         *registry.Registry
	concurrency int
	logger      *slog.Logger
	metrics     *Metrics
}

// NewRestorer constructs a Restorer bound to reg, with the given worker
// concurrency.
func NewRestorer(reg *registry.Registry, concurrency int, logger *slog.Logger, metrics *Metrics) *Restorer {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Restorer{reg: reg, concurrency: concurrency, logger: logger.With("component", "snapshot"), metrics: metrics}
}

const queueCapacity = 25000

// RestoreObjects reads path and applies each record's update to its
// matching registered object via a bounded work queue. An unreadable file
// is a fatal I/O error; malformed or stale individual records are logged
// and skipped. After every record has been applied, every registered
// object that was not touched by the snapshot still has MarkStateLoaded
// (and, if implemented, OnStateLoaded) run on it exactly once.
func (r *Restorer) RestoreObjects(path string, mask object.FieldClass) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: open: %w", err)
	}
	defer f.Close()

	queue := make(chan record, queueCapacity)
	touched := newTouchedSet()

	var wg sync.WaitGroup
	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range queue {
				r.applyRecord(rec, mask, touched)
			}
		}()
	}

	reader := bufio.NewReader(f)
	var readErr error
	recordCount := 0
readLoop:
	for {
		payload, rerr := readRecord(reader)
		if rerr != nil {
			break readLoop
		}
		var rec record
		if jerr := json.Unmarshal(payload, &rec); jerr != nil {
			r.logger.Warn("snapshot: malformed record, skipping", "error", jerr)
			continue
		}
		queue <- rec
		recordCount++
	}
	_ = readErr
	close(queue)
	wg.Wait()

	r.finalizeUntouched(touched)

	if r.metrics != nil {
		r.metrics.RecordsRead.Add(float64(recordCount))
		r.metrics.RestoresTotal.Inc()
	}
	r.logger.Info("restored snapshot", "path", path, "records", recordCount)
	return nil
}

func (r *Restorer) applyRecord(rec record, mask object.FieldClass, touched *touchedSet) {
	inst, err := r.reg.Lookup(rec.Type, rec.Name)
	if err != nil {
		r.logger.Debug("snapshot: stale record, skipping", "type", rec.Type, "name", rec.Name)
		return
	}
	target, ok := inst.(Target)
	if !ok {
		return
	}
	if target.Active() {
		r.logger.Warn("snapshot: object already active, skipping restore", "type", rec.Type, "name", rec.Name)
		return
	}
	if err := serialize.Deserialize(target, rec.Update, true, mask); err != nil {
		r.logger.Warn("snapshot: deserialize failed, skipping", "type", rec.Type, "name", rec.Name, "error", err)
		return
	}
	r.finishLoad(target)
	touched.mark(rec.Type, rec.Name)
}

func (r *Restorer) finalizeUntouched(touched *touchedSet) {
	for _, typeName := range r.reg.Types() {
		objs, err := r.reg.Objects(typeName)
		if err != nil {
			continue
		}
		for _, inst := range objs {
			target, ok := inst.(Target)
			if !ok || touched.has(typeName, target.Name()) {
				continue
			}
			r.finishLoad(target)
		}
	}
}

func (r *Restorer) finishLoad(target Target) {
	if target.StateLoaded() {
		return
	}
	target.MarkStateLoaded()
	if hook, ok := target.(stateLoadHook); ok {
		hook.OnStateLoaded()
	}
}

// touchedSet records which (type, name) pairs a restore pass applied a
// record to, so the post-drain sweep can finalize everything else exactly
// once.
type touchedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newTouchedSet() *touchedSet {
	return &touchedSet{seen: make(map[string]struct{})}
}

func (t *touchedSet) mark(typeName, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[typeName+"\x00"+name] = struct{}{}
}

func (t *touchedSet) has(typeName, name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[typeName+"\x00"+name]
	return ok
}
