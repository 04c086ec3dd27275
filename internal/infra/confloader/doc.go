// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables, optionally seeded from a .env file
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
//
// Watcher reports edits of the configuration file so that reloadable
// settings can be re-applied without a restart.
package confloader
