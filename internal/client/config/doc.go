// Package config loads settings for the sessionctl client: defaults, then an
// optional JSON file (-c), then command-line flags.
package config
