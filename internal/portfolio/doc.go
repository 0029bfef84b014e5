// Package portfolio defines the portfolio's entities and the list helpers
// shared by the CLI: the embedded project baseline, the GitHub-enriched
// project cache, and category/technology/tag filtering and search.
package portfolio
