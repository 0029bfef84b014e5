// Package config loads and merges folio configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (FOLIO_API_URL, FOLIO_STORE, FOLIO_LOG_LEVEL, etc.)
//  3. Config file ($XDG_CONFIG_HOME/folio/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the config file,
// and [SetField] to update a single key.
package config
