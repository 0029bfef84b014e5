// Package logging builds the process logger: a stderr handler for humans
// fanned out with an optional JSON file handler for later inspection.
package logging
