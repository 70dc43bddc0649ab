// Package storage persists governance entities: the policies attached to
// organizational units, policy drafts, and proposals.
//
// Two backends are provided. MemoryBackend keeps everything in process and
// is suitable for tests and ephemeral deployments. SQLiteBackend persists
// to a SQLite database in WAL mode and is suitable for single-instance
// deployments that need durability across restarts.
//
// Both backends satisfy the Backend interface, which embeds
// proposal.Store. The one-proposal-per-draft invariant is enforced here:
// in memory by a map membership check, in SQLite by a unique constraint
// on the draft id.
package storage
