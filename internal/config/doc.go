// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// One file can carry both the hub and the agent sections; each role validates
// only what it needs.
package config
