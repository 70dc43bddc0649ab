package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/minerva/pkg/governance/drift"
)

// MemoryStorage implements Storage using in-memory maps. Intended for
// tests and single-process tooling.
type MemoryStorage struct {
	mu           sync.RWMutex
	results      map[string][]*drift.Result // keyed by tenant/project
	suppressions map[string]*drift.Suppression
	configs      map[string]*drift.Config
}

// NewMemoryStorage creates an empty in-memory drift store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		results:      make(map[string][]*drift.Result),
		suppressions: make(map[string]*drift.Suppression),
		configs:      make(map[string]*drift.Config),
	}
}

func scopeKey(tenantID, projectID string) string {
	return tenantID + "/" + projectID
}

// StoreResult persists a drift result.
func (s *MemoryStorage) StoreResult(ctx context.Context, result *drift.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *result
	key := scopeKey(result.TenantID, result.ProjectID)
	s.results[key] = append(s.results[key], &r)
	return nil
}

// LatestResult returns the most recent drift result for a project.
func (s *MemoryStorage) LatestResult(ctx context.Context, tenantID, projectID string) (*drift.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.results[scopeKey(tenantID, projectID)]
	if len(results) == 0 {
		return nil, fmt.Errorf("drift result for %s/%s: %w", tenantID, projectID, drift.ErrNotFound)
	}

	// Ties on timestamp resolve to the most recently stored result.
	latest := results[0]
	for _, r := range results[1:] {
		if !r.Timestamp.Before(latest.Timestamp) {
			latest = r
		}
	}
	out := *latest
	return &out, nil
}

// CreateSuppression records a violation suppression.
func (s *MemoryStorage) CreateSuppression(ctx context.Context, suppression *drift.Suppression) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sup := *suppression
	s.suppressions[suppression.ID] = &sup
	return nil
}

// ListSuppressions returns all suppressions for a project.
func (s *MemoryStorage) ListSuppressions(ctx context.Context, tenantID, projectID string) ([]*drift.Suppression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*drift.Suppression
	for _, sup := range s.suppressions {
		if sup.TenantID == tenantID && sup.ProjectID == projectID {
			c := *sup
			out = append(out, &c)
		}
	}
	return out, nil
}

// DeleteSuppression removes a suppression by id.
func (s *MemoryStorage) DeleteSuppression(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sup, ok := s.suppressions[id]
	if !ok || sup.TenantID != tenantID {
		return fmt.Errorf("suppression %s: %w", id, drift.ErrNotFound)
	}
	delete(s.suppressions, id)
	return nil
}

// GetConfig returns the drift configuration for a tenant/project.
func (s *MemoryStorage) GetConfig(ctx context.Context, tenantID, projectID string) (*drift.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Project-level config wins over tenant-level.
	if cfg, ok := s.configs[scopeKey(tenantID, projectID)]; ok {
		c := *cfg
		return &c, nil
	}
	if cfg, ok := s.configs[scopeKey(tenantID, "")]; ok {
		c := *cfg
		return &c, nil
	}
	return nil, fmt.Errorf("drift config for %s/%s: %w", tenantID, projectID, drift.ErrNotFound)
}

// SaveConfig persists a drift configuration.
func (s *MemoryStorage) SaveConfig(ctx context.Context, config *drift.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *config
	s.configs[scopeKey(config.TenantID, config.ProjectID)] = &c
	return nil
}

// PruneResults deletes drift results older than the cutoff.
func (s *MemoryStorage) PruneResults(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, results := range s.results {
		kept := results[:0]
		for _, r := range results {
			if r.Timestamp.Before(cutoff) {
				deleted++
			} else {
				kept = append(kept, r)
			}
		}
		s.results[key] = kept
	}
	return deleted, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}
