// Package cli wires together the Cobra command tree for the folio binary.
//
// It defines the root command and all subcommands (projects, writeups,
// comments, newsletter, contact, news, watch, login, logout, cache, config,
// version), binds flags, reads configuration, opens the persistent store and
// returns deterministic exit codes.
package cli
