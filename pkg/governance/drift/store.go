package drift

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage persists drift results, suppressions, and drift configuration.
// All operations are tenant-scoped and fallible. Implementations live in
// the storage subpackage.
type Storage interface {
	// StoreResult persists a drift result.
	StoreResult(ctx context.Context, result *Result) error

	// LatestResult returns the most recent drift result for a project, or
	// ErrNotFound when the project has never been checked.
	LatestResult(ctx context.Context, tenantID, projectID string) (*Result, error)

	// CreateSuppression records a violation suppression.
	CreateSuppression(ctx context.Context, suppression *Suppression) error

	// ListSuppressions returns all suppressions for a project.
	ListSuppressions(ctx context.Context, tenantID, projectID string) ([]*Suppression, error)

	// DeleteSuppression removes a suppression by id.
	DeleteSuppression(ctx context.Context, tenantID, id string) error

	// GetConfig returns the drift configuration for a tenant/project, or
	// ErrNotFound when none has been saved.
	GetConfig(ctx context.Context, tenantID, projectID string) (*Config, error)

	// SaveConfig persists a drift configuration.
	SaveConfig(ctx context.Context, config *Config) error

	// PruneResults deletes drift results older than the cutoff and returns
	// the number of records removed.
	PruneResults(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}

// StorageError wraps a backend failure with operation context.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// NewStorageError creates a storage error.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// Error returns the error message.
func (e *StorageError) Error() string {
	return fmt.Sprintf("drift storage %s: %s failed: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
