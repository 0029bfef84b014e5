// Package github provides a minimal GitHub REST API client used to enrich
// portfolio projects with repository metadata.
//
// Repositories are identified by parsing a stored project URL of the form
// host/owner/repo. A token is optional; without one requests are subject to
// GitHub's anonymous rate limit, which is why callers cache results.
package github
