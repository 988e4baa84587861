// Package core holds the connect domain: the one-time CSRF state registry,
// the per-user token store, and the orchestration service that drives the
// Facebook Login handshake for Instagram Business accounts.
package core
