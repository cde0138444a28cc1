package embed

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Registry tracks the live instance of each container.
type Registry struct {
	platform Platform
	base     Config
	logger   zerolog.Logger

	mu        sync.Mutex
	instances map[string]*Instance
	autoSeq   int
}

// NewRegistry creates a Registry rendering into p. base supplies defaults
// (APIURL, SearchDebounce, DiscardStale) for Render and AutoInit.
func NewRegistry(p Platform, base Config) *Registry {
	return &Registry{
		platform:  p,
		base:      base.withDefaults(),
		logger:    p.Logger().With().Str("component", "embed").Logger(),
		instances: make(map[string]*Instance),
	}
}

// Render creates an instance for cfg.ContainerID and starts its initial
// render. A container that already has an instance is re-rendered from
// scratch. Render never panics or returns an error: a missing container
// or incomplete config is logged and nil is returned.
func (r *Registry) Render(cfg Config) *Instance {
	cfg = r.applyBase(cfg)

	if err := cfg.Validate(); err != nil {
		r.logger.Error().Err(err).Str("container_id", cfg.ContainerID).Msg("cannot render widget")
		if cfg.ContainerID != "" {
			if el := r.platform.FindElement(cfg.ContainerID); el != nil {
				_ = r.platform.SetInnerHTML(el, configErrorMarkup("Widget is not configured correctly."))
			}
		}
		return nil
	}

	el := r.platform.FindElement(cfg.ContainerID)
	if el == nil {
		r.logger.Error().
			Err(ErrContainerNotFound).
			Str("container_id", cfg.ContainerID).
			Msgf("widget container %q not found", cfg.ContainerID)
		return nil
	}

	if prev := r.GetInstance(cfg.ContainerID); prev != nil {
		prev.Destroy()
	}

	inst := newInstance(cfg, r.platform, el, r.logger, r.remove)
	r.mu.Lock()
	r.instances[cfg.ContainerID] = inst
	r.mu.Unlock()

	inst.start()
	return inst
}

// GetInstance returns the live instance for containerID, or nil.
func (r *Registry) GetInstance(containerID string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[containerID]
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// AutoInit renders every element carrying the widget marker and both id
// attributes. Elements missing either id are skipped silently, as are
// containers that already have an instance. Elements without an id
// attribute are assigned one.
func (r *Registry) AutoInit() []*Instance {
	var started []*Instance
	for _, el := range r.platform.QueryAll(AttrMarker) {
		cfg, ok := ConfigFromElement(el, r.base)
		if !ok {
			continue
		}
		if cfg.ContainerID == "" {
			cfg.ContainerID = r.assignID(el)
		} else if r.GetInstance(cfg.ContainerID) != nil {
			continue
		}
		if inst := r.Render(cfg); inst != nil {
			started = append(started, inst)
		}
	}
	r.logger.Debug().Int("count", len(started)).Msg("auto-initialized widgets")
	return started
}

// Wait blocks until every live instance is idle.
func (r *Registry) Wait() {
	for _, inst := range r.snapshot() {
		inst.Wait()
	}
}

// DestroyAll destroys every live instance.
func (r *Registry) DestroyAll() {
	for _, inst := range r.snapshot() {
		inst.Destroy()
		inst.Wait()
	}
}

func (r *Registry) snapshot() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst)
	}
	return out
}

// remove drops inst if it is still the registered instance of its container.
func (r *Registry) remove(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instances[inst.ContainerID()] == inst {
		delete(r.instances, inst.ContainerID())
	}
}

func (r *Registry) assignID(el Element) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		r.autoSeq++
		id := fmt.Sprintf("plinth-widget-%d", r.autoSeq)
		if r.platform.FindElement(id) == nil {
			r.platform.SetAttribute(el, "id", id)
			return id
		}
	}
}

func (r *Registry) applyBase(cfg Config) Config {
	if cfg.APIURL == "" {
		cfg.APIURL = r.base.APIURL
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = r.base.SearchDebounce
	}
	if r.base.DiscardStale {
		cfg.DiscardStale = true
	}
	return cfg.withDefaults()
}
