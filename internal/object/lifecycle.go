package object

import "github.com/icinga-cluster/clustercore/internal/signal"

// Lifecycle lets a concrete domain type observe Start/Stop/Pause/Resume.
// Every method is a no-op in practice unless the embedding type overrides
// by providing its own Lifecycle; Activate/Deactivate/SetAuthority call
// through this interface exactly once per transition.
type Lifecycle interface {
	OnStart()
	OnStop()
	OnPause()
	OnResume()
}

// NoopLifecycle is embeddable by domain types that have nothing to do on
// any of the four transitions.
type NoopLifecycle struct{}

func (NoopLifecycle) OnStart()  {}
func (NoopLifecycle) OnStop()   {}
func (NoopLifecycle) OnPause()  {}
func (NoopLifecycle) OnResume() {}

// Activate moves the object from Constructed/Inactive to Active. Start()
// runs at most once over the object's lifetime (observable via
// StartCalled()); SetAuthority(true) always runs afterward. Activating an
// already-active object is a programming error and panics: a violated
// precondition aborts the process rather than returning an error.
func (o *Object) Activate(lc Lifecycle) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		panic(ErrAlreadyActive)
	}
	needsStart := !o.startCalled
	o.mu.Unlock()

	if needsStart {
		lc.OnStart()
		o.mu.Lock()
		o.startCalled = true
		o.mu.Unlock()
	}

	o.mu.Lock()
	o.active = true
	o.mu.Unlock()
	o.bus.Emit(signal.Event{Kind: KindActivated, Type: o.desc.TypeName(), Name: o.name})

	o.SetAuthority(true, lc)
}

// Deactivate sets authority false and, if the object was active, flips
// active false and runs Stop() exactly once. Deactivating an already
// inactive object returns silently.
func (o *Object) Deactivate(lc Lifecycle) {
	o.SetAuthority(false, lc)

	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return
	}
	o.active = false
	o.mu.Unlock()
	o.bus.Emit(signal.Event{Kind: KindDeactivated, Type: o.desc.TypeName(), Name: o.name})

	lc.OnStop()
	o.mu.Lock()
	o.stopCalled = true
	o.mu.Unlock()
}

// SetAuthority flips the paused sub-state. Setting authority true on a
// paused object calls Resume() then clears paused; setting it false on a
// non-paused object calls Pause() then sets paused. Both are idempotent.
func (o *Object) SetAuthority(authority bool, lc Lifecycle) {
	if authority {
		o.mu.Lock()
		if !o.paused {
			o.mu.Unlock()
			return
		}
		o.mu.Unlock()

		lc.OnResume()
		o.mu.Lock()
		o.resumeCalled = true
		o.paused = false
		o.mu.Unlock()
		o.bus.Emit(signal.Event{Kind: KindResumed, Type: o.desc.TypeName(), Name: o.name})
		return
	}

	o.mu.Lock()
	if o.paused {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	lc.OnPause()
	o.mu.Lock()
	o.pauseCalled = true
	o.paused = true
	o.mu.Unlock()
	o.bus.Emit(signal.Event{Kind: KindPaused, Type: o.desc.TypeName(), Name: o.name})
}

// StartCalled reports whether Start() has run.
func (o *Object) StartCalled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.startCalled
}

// StopCalled reports whether Stop() has run.
func (o *Object) StopCalled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopCalled
}

// PauseCalled reports whether Pause() has ever run.
func (o *Object) PauseCalled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pauseCalled
}

// ResumeCalled reports whether Resume() has ever run.
func (o *Object) ResumeCalled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resumeCalled
}
