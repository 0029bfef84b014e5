// Package task provides cancellable background work.
//
// [Guard] is a cancelled flag plus a context: work that resumes after a
// suspension point checks [Guard.Cancelled] before touching shared state.
// [Poller] builds a fixed-interval repeating task on top of it and never lets
// two runs overlap.
package task
