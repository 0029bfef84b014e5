// Package auth holds the admin session used by the API client.
//
// A [Session] is an immutable value. The [Holder] is created once at startup
// and its session is replaced wholesale on login and logout; nothing mutates
// a session in place.
package auth
