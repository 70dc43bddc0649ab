// Package storage provides persistence backends for drift results,
// suppressions, and per-tenant drift configuration.
//
// Two implementations are provided: MemoryStorage for tests and
// single-process tooling, and SQLiteStorage for durable deployments.
package storage
