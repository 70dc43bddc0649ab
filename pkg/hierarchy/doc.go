// Package hierarchy models the organizational unit tree that callers use
// to map a unit to its governance layer before invoking validation or
// drift checks.
//
// The governance engine itself only understands the four knowledge layers;
// this package resolves which layer a concrete unit (a company, an org, a
// team, or a project) occupies and exposes ancestor/descendant walks over
// the unit tree.
package hierarchy
