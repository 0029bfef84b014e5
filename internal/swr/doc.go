// Package swr implements a stale-while-revalidate list cache on top of a
// persistent store.
//
// A [Controller] answers synchronously with the best list it has (baseline,
// or baseline merged with a cached envelope) and refreshes in the background
// when the envelope is missing, stale or structurally incomplete. Refresh
// enriches each entity independently; a failed fetch keeps that entity's
// previous fields and never aborts the refresh. Results that arrive after
// [Controller.Close] are discarded without touching the store or the display.
package swr
