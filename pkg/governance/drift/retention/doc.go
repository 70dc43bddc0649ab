// Package retention prunes aged drift results from storage, optionally on
// a cron schedule. Drift results are append-only audit records; without
// pruning the store grows without bound.
package retention
