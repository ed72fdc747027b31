// Package config loads pansweep configuration from local and global YAML files.
// CLI flags take precedence over the local file, which takes precedence over
// the global one; the cmd package applies that order.
package config
