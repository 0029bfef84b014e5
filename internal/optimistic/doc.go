// Package optimistic applies user mutations to an in-memory entity list
// before the backend confirms them.
//
// Every mutation is tracked as an [Operation] moving from pending to
// confirmed or rolled-back. Create rolls back precisely by removing the
// temporary entity. Update, Delete and Approve recover by reloading the
// authoritative list from the backend. Failures are returned as
// *folioerr.MutationError after recovery has run; nothing is retried.
//
// Temporary identities are negative, drawn from a sonyflake generator, and
// therefore never collide with the positive ids a server assigns.
package optimistic
