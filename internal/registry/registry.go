package registry

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// typeIndex holds one type's descriptor and its live instance table.
type typeIndex struct {
	mu        sync.RWMutex
	desc      *TypeDescriptor
	instances map[string]object.Instance
}

// Registry is the process-wide type table: one TypeDescriptor plus instance
// index per registered type name. It is the concrete object.NameResolver
// objects validate cross-references against, and the only place objects
// get inserted into a reachable index once activated.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*typeIndex
	bus   *signal.Bus

	validateCache *lru.Cache[string, bool]
	metrics       *Metrics
}

// New constructs an empty Registry. bus is the signal bus passed through to
// objects created via RegisterObject's caller (the registry itself does not
// emit events; configurable objects do). metricsReg is the Prometheus registerer new
// metrics are registered against; pass a dedicated prometheus.Registry in
// tests to avoid colliding with the global default registerer.
func New(bus *signal.Bus, metricsReg *prometheus.Registry) *Registry {
	cache, err := lru.New[string, bool](4096)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// programming error here.
		panic(err)
	}
	return &Registry{
		types:         make(map[string]*typeIndex),
		bus:           bus,
		validateCache: cache,
		metrics:       NewMetrics(metricsReg),
	}
}

// RegisterType adds a type descriptor. Registering the same type name twice
// is a programming error and returns ErrDuplicateType.
func (r *Registry) RegisterType(desc *TypeDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[desc.TypeName()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, desc.TypeName())
	}
	r.types[desc.TypeName()] = &typeIndex{
		desc:      desc,
		instances: make(map[string]object.Instance),
	}
	r.metrics.TypesRegistered.Inc()
	return nil
}

// Type returns the descriptor registered under name.
func (r *Registry) Type(name string) (*TypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ti, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return ti.desc, nil
}

// Bus returns the signal bus this registry's types were constructed
// against, so callers needing to fabricate a transient object (the
// remote-command executor's throwaway Host) can wire it to the same bus.
func (r *Registry) Bus() *signal.Bus { return r.bus }

// Types returns every registered type name, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) typeIndexFor(typeName string) (*typeIndex, error) {
	r.mu.RLock()
	ti, ok := r.types[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return ti, nil
}

// RegisterObject inserts obj into its type's instance index. At most one
// object may exist per (type, name); registering a duplicate name returns
// ErrDuplicateObject and leaves the existing instance untouched.
func (r *Registry) RegisterObject(typeName string, obj object.Instance) error {
	ti, err := r.typeIndexFor(typeName)
	if err != nil {
		return err
	}

	ti.mu.Lock()
	if _, exists := ti.instances[obj.Name()]; exists {
		ti.mu.Unlock()
		return fmt.Errorf("%w: %s!%s", ErrDuplicateObject, typeName, obj.Name())
	}
	ti.instances[obj.Name()] = obj
	ti.mu.Unlock()

	r.validateCache.Remove(cacheKey(typeName, obj.Name()))
	r.metrics.ObjectsRegistered.WithLabelValues(typeName).Inc()
	return nil
}

// Unregister removes name from typeName's instance index. Unregistering an
// absent name returns ErrUnknownObject.
func (r *Registry) Unregister(typeName, name string) error {
	ti, err := r.typeIndexFor(typeName)
	if err != nil {
		return err
	}

	ti.mu.Lock()
	if _, exists := ti.instances[name]; !exists {
		ti.mu.Unlock()
		return fmt.Errorf("%w: %s!%s", ErrUnknownObject, typeName, name)
	}
	delete(ti.instances, name)
	ti.mu.Unlock()

	r.validateCache.Remove(cacheKey(typeName, name))
	r.metrics.ObjectsRegistered.WithLabelValues(typeName).Dec()
	return nil
}

// Lookup returns the object registered under (typeName, name).
func (r *Registry) Lookup(typeName, name string) (object.Instance, error) {
	ti, err := r.typeIndexFor(typeName)
	if err != nil {
		return nil, err
	}
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	obj, ok := ti.instances[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s!%s", ErrUnknownObject, typeName, name)
	}
	return obj, nil
}

// Objects returns every currently registered instance of typeName, sorted
// by name. Used by the repository beacon to enumerate hosts/services and by
// StopObjects.
func (r *Registry) Objects(typeName string) ([]object.Instance, error) {
	ti, err := r.typeIndexFor(typeName)
	if err != nil {
		return nil, err
	}
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	names := make([]string, 0, len(ti.instances))
	for n := range ti.instances {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]object.Instance, 0, len(names))
	for _, n := range names {
		out = append(out, ti.instances[n])
	}
	return out, nil
}

// ValidateName implements object.NameResolver: it reports whether name is a
// currently registered instance of typeName. Results are cached in a
// bounded LRU since hot validation paths (e.g. Vars lookups during inbound
// dispatch) re-check the same small set of names repeatedly; the cache
// entry for a name is invalidated on every Register/Unregister of that
// exact (type, name) pair.
func (r *Registry) ValidateName(typeName, name string) bool {
	key := cacheKey(typeName, name)
	if v, ok := r.validateCache.Get(key); ok {
		r.metrics.ValidateCacheHits.Inc()
		return v
	}
	_, err := r.Lookup(typeName, name)
	valid := err == nil
	r.validateCache.Add(key, valid)
	r.metrics.ValidateCacheMisses.Inc()
	return valid
}

// StopObjects deactivates every registered object across every type, in
// arbitrary order. There is no dependency tracking between types; this
// mirrors the teardown path a process shutdown runs.
func (r *Registry) StopObjects(lc object.Lifecycle) {
	r.mu.RLock()
	typeNames := make([]string, 0, len(r.types))
	for n := range r.types {
		typeNames = append(typeNames, n)
	}
	r.mu.RUnlock()

	for _, tn := range typeNames {
		objs, err := r.Objects(tn)
		if err != nil {
			continue
		}
		for _, obj := range objs {
			if obj.Active() {
				obj.Deactivate(lc)
			}
		}
	}
}

func cacheKey(typeName, name string) string {
	return typeName + "\x00" + name
}
