// Package config defines the root configuration for Minerva and the
// machinery to load it.
//
// Configuration is a single YAML file. LoadConfig reads it, applies
// defaults, and validates; LoadConfigWithEnvOverrides additionally applies
// MINERVA_SECTION_FIELD environment variables on top, re-validating the
// result. Environment variables always win over file values.
package config
