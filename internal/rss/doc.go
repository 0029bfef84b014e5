// Package rss aggregates security news feeds.
//
// Feeds are fetched as JSON through an rss2json-compatible proxy, mapped to
// Post values and merged newest first. A feed that fails is skipped; the
// aggregate only fails when every feed does.
package rss
