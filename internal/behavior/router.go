package behavior

import (
	"fmt"
	"sync"
)

// Router dispatches samples to the active pipeline among a fixed set of named
// pipelines. Selection may change from any goroutine; samples themselves are
// expected to arrive one at a time from a single source.
type Router struct {
	pipelines map[string]*Pipeline
	order     []string

	// selectMu orders whole selections, hooks included, so the last hook
	// call always names the active binding.
	selectMu sync.Mutex

	mu     sync.RWMutex
	active *Pipeline
	onSwap []func(name string)
}

// NewRouter builds a router over pipelines, with the named one active.
func NewRouter(pipelines []*Pipeline, active string) (*Router, error) {
	if len(pipelines) == 0 {
		return nil, fmt.Errorf("router: no pipelines")
	}
	r := &Router{pipelines: make(map[string]*Pipeline, len(pipelines))}
	for _, p := range pipelines {
		if _, dup := r.pipelines[p.Name()]; dup {
			return nil, fmt.Errorf("router: duplicate binding %q", p.Name())
		}
		r.pipelines[p.Name()] = p
		r.order = append(r.order, p.Name())
	}
	if active == "" {
		active = r.order[0]
	}
	p, ok := r.pipelines[active]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBinding, active)
	}
	r.active = p
	return r, nil
}

// Process hands the sample to the active pipeline.
func (r *Router) Process(s Sample) error {
	r.mu.RLock()
	p := r.active
	r.mu.RUnlock()
	return p.Process(s)
}

// Select makes the named pipeline active. It reports false for unknown names.
// Hooks run before Select returns and must not call Select themselves.
func (r *Router) Select(name string) bool {
	p, ok := r.pipelines[name]
	if !ok {
		return false
	}
	r.selectMu.Lock()
	defer r.selectMu.Unlock()

	r.mu.Lock()
	changed := r.active != p
	r.active = p
	hooks := r.onSwap
	r.mu.Unlock()

	if changed {
		for _, fn := range hooks {
			fn(name)
		}
	}
	return true
}

// OnSelect registers fn to run after the active binding changes.
func (r *Router) OnSelect(fn func(name string)) {
	r.mu.Lock()
	r.onSwap = append(r.onSwap, fn)
	r.mu.Unlock()
}

// Active returns the name of the active pipeline.
func (r *Router) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active.Name()
}

// Names returns the binding names in configuration order.
func (r *Router) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Pipeline returns the named pipeline.
func (r *Router) Pipeline(name string) (*Pipeline, bool) {
	p, ok := r.pipelines[name]
	return p, ok
}
