/*
Package project contains the collaboration data model and the session registry.

This file defines the Registry, the process-wide map from project identifier
to project state. It is the single source of truth for "does this project
exist" and owns the only deletion path: the periodic idle sweep.
*/
package project

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"slidesync/internal/pkg/logx"
	"slidesync/internal/pkg/metrics"
)

// Registry owns the mapping from project identifier to Project state.
type Registry struct {
	// mu protects concurrent access to the projects map.
	mu sync.RWMutex

	projects map[string]*Project

	// idleThreshold is how long an empty project survives before Sweep
	// removes it.
	idleThreshold time.Duration

	logger zerolog.Logger
}

// NewRegistry constructs an empty registry with the given idle threshold.
func NewRegistry(idleThreshold time.Duration) *Registry {
	return &Registry{
		projects:      make(map[string]*Project),
		idleThreshold: idleThreshold,
		logger:        logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// GetOrCreate returns the project, creating an empty one on first join.
// It never fails.
func (reg *Registry) GetOrCreate(projectID string) *Project {
	reg.mu.RLock()
	p, ok := reg.projects[projectID]
	reg.mu.RUnlock()

	if ok {
		return p
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if p, ok = reg.projects[projectID]; ok {
		return p
	}

	p = newProject(projectID)
	reg.projects[projectID] = p
	metrics.ActiveProjects.Inc()

	reg.logger.Info().Str("project_id", projectID).Msg("Project created.")
	return p
}

// Get returns the project or nil when it does not exist.
func (reg *Registry) Get(projectID string) *Project {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.projects[projectID]
}

// Touch updates the project's last-activity stamp, if it exists.
func (reg *Registry) Touch(projectID string) {
	if p := reg.Get(projectID); p != nil {
		p.Touch()
	}
}

// Len returns the number of projects currently held.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.projects)
}

// Sweep removes every project that is empty AND idle beyond the threshold,
// and returns the removed identifiers. Deletion is never triggered
// synchronously by a leave event: a project that just became empty stays
// resolvable until a full threshold elapses, so a joiner racing the last
// leave still finds the state it needs.
func (reg *Registry) Sweep(now time.Time) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var removed []string
	for id, p := range reg.projects {
		if p.expired(now, reg.idleThreshold) {
			delete(reg.projects, id)
			removed = append(removed, id)
			metrics.ActiveProjects.Dec()
			metrics.SweptProjectsTotal.Inc()
			reg.logger.Info().Str("project_id", id).Msg("Cleaned up inactive project.")
		}
	}

	return removed
}
