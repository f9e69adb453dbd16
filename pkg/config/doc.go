// Package config provides configuration loading, validation, and default
// management for Ganymede.
//
// Configuration is defined in YAML and can be overridden by environment
// variables using the GANYMEDE_SECTION_FIELD naming convention. All
// validation errors are collected and reported together, and a manager
// constructed from an invalid configuration fails at construction rather
// than at first request.
package config
