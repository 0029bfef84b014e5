// Package api is a client for the portfolio REST API.
//
// It covers writeups, comments, the newsletter, the contact form and admin
// login. Requests carry the bearer token of the current auth.Holder session;
// a 401 response ends that session.
//
// GET responses for writeups and comments are cached in two tiers: an
// in-process TTL cache and envelope-encoded entries in a persistent
// store.Store, both expiring after five minutes. Mutations of a writeup
// invalidate its cached detail and the cached list.
//
// WriteupBackend and CommentBackend adapt the client to optimistic.Backend.
package api
