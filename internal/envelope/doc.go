// Package envelope encodes timestamped cache payloads for the persistent store.
//
// An [Envelope] pairs the instant a payload was captured with the payload
// itself. Envelopes are replaced wholesale on every refresh and are never
// mutated in place. [Decode] treats any malformed input as a cache miss, so a
// schema change between deployments degrades to a cold cache instead of an
// error.
package envelope
