// Package config loads runtime configuration from environment
// variables and an optional YAML file. Environment variables use the
// OPSIGHT prefix and take precedence over the file.
package config
