// Folio is the command-line front end for a portfolio site's data layer.
//
// It lists projects enriched with GitHub data, browses and moderates CTF
// writeups and comments, aggregates security news feeds, and watches a
// writeup for changes. Cached data lives in a persistent store that
// survives restarts.
//
// Usage:
//
//	folio projects                    # list projects, revalidating stale data
//	folio writeups list               # list writeups
//	folio comments pending            # moderation queue (requires login)
//	folio comments approve <id>       # approve a pending comment
//	folio news                        # latest security news
//	folio watch <writeup-id>          # poll a writeup for changes
package main
