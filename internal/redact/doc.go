// Package redact scrubs credentials from text before it is logged or printed.
//
// Error bodies returned by the portfolio API and GitHub are echoed into
// error messages. They may carry session tokens issued by the login endpoint,
// GitHub personal access tokens or submitted passwords, so every such body
// passes through Secrets first.
package redact
