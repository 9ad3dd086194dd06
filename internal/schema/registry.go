package schema

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
)

// Capabilities is a versioned snapshot of every resolved relation.
type Capabilities struct {
	Version    string              `json:"version"`
	Revision   int                 `json:"revision"`
	ResolvedAt time.Time           `json:"resolvedAt"`
	Relations  map[string][]string `json:"relations"`
	Unknown    []string            `json:"unknown,omitempty"`
	Pinned     []string            `json:"pinned,omitempty"`
}

// Registry memoizes probe results. In startup mode a relation is probed once
// and reused until invalidated; in per_write mode every lookup probes again.
// Unknown results are never memoized so an empty relation is re-probed once
// it has rows.
type Registry struct {
	probe *Probe
	mode  string
	log   *logger.Logger
	now   func() time.Time

	mu         sync.RWMutex
	sets       map[string]ColumnSet
	pinned     map[string]bool
	version    string
	revision   int
	resolvedAt time.Time
}

// NewRegistry creates a registry over probe. mode is config.ProbeModeStartup
// or config.ProbeModePerWrite.
func NewRegistry(probe *Probe, mode string, log *logger.Logger) *Registry {
	if mode != config.ProbeModePerWrite {
		mode = config.ProbeModeStartup
	}
	return &Registry{
		probe:  probe,
		mode:   mode,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		sets:   make(map[string]ColumnSet),
		pinned: make(map[string]bool),
	}
}

// Pin installs a descriptor's relations as fixed column sets.
func (r *Registry) Pin(desc *Descriptor) {
	if desc == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for relation, cols := range desc.Relations {
		r.sets[relation] = NewColumnSet(cols...)
		r.pinned[relation] = true
	}
	r.version = desc.Version
	r.bumpLocked()
}

// Resolve probes every listed relation that is not pinned.
// Relations that could not be probed are reported in Capabilities.Unknown.
func (r *Registry) Resolve(ctx context.Context, relations ...string) Capabilities {
	var unknown []string
	for _, relation := range relations {
		if r.isPinned(relation) {
			continue
		}
		set := r.probe.ProbeColumns(ctx, relation)
		if !set.Known() {
			unknown = append(unknown, relation)
		}
		r.store(relation, set)
	}
	caps := r.Snapshot()
	caps.Unknown = unknown
	return caps
}

// Columns returns the column set writers should use for relation.
func (r *Registry) Columns(ctx context.Context, relation string) ColumnSet {
	if r.mode == config.ProbeModePerWrite && !r.isPinned(relation) {
		return r.probe.ProbeColumns(ctx, relation)
	}

	r.mu.RLock()
	set, ok := r.sets[relation]
	r.mu.RUnlock()
	if ok {
		return set
	}

	set = r.probe.ProbeColumns(ctx, relation)
	r.store(relation, set)
	return set
}

// Invalidate drops cached sets so the next lookup probes again. Pinned
// relations stay pinned. With no arguments every probed relation is dropped.
func (r *Registry) Invalidate(relations ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(relations) == 0 {
		for relation := range r.sets {
			relations = append(relations, relation)
		}
	}
	dropped := false
	for _, relation := range relations {
		if r.pinned[relation] {
			continue
		}
		if _, ok := r.sets[relation]; ok {
			delete(r.sets, relation)
			dropped = true
		}
	}
	if dropped {
		r.bumpLocked()
		r.log.Info("schema capabilities invalidated", "relations", relations, "revision", r.revision)
	}
}

// Snapshot returns the current capabilities.
func (r *Registry) Snapshot() Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := Capabilities{
		Version:    r.version,
		Revision:   r.revision,
		ResolvedAt: r.resolvedAt,
		Relations:  make(map[string][]string, len(r.sets)),
	}
	if caps.Version == "" {
		caps.Version = fmt.Sprintf("probed-%d", r.revision)
	}
	for relation, set := range r.sets {
		caps.Relations[relation] = set.Names()
		if r.pinned[relation] {
			caps.Pinned = append(caps.Pinned, relation)
		}
	}
	sort.Strings(caps.Pinned)
	return caps
}

// Mode reports the probe mode in effect.
func (r *Registry) Mode() string { return r.mode }

func (r *Registry) store(relation string, set ColumnSet) {
	if !set.Known() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pinned[relation] {
		return
	}
	r.sets[relation] = set
	r.bumpLocked()
}

func (r *Registry) isPinned(relation string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pinned[relation]
}

func (r *Registry) bumpLocked() {
	r.revision++
	r.resolvedAt = r.now()
}
